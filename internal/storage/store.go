// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopcast/shopcast/internal/models"
)

// Sentinel errors returned by store implementations. Callers classify
// failures with errors.Is; implementations wrap driver errors with one of
// these so the transport layer never inspects driver error strings.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates an insert violated a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")

	// ErrUnavailable indicates the backing store could not be reached
	// (connection refused, timeout, closed handle).
	ErrUnavailable = errors.New("store unavailable")

	// ErrRejected indicates the backing store refused the write
	// (constraint violation other than uniqueness, malformed record).
	ErrRejected = errors.New("store rejected write")
)

// UserStore defines the interface for credential persistence.
// This abstraction allows swapping storage backends without changing the
// authenticator.
type UserStore interface {
	// CreateUser persists a new user. Returns ErrDuplicate if the username
	// is already taken; the check-and-insert is atomic at the store level.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves a user by username.
	// Returns ErrNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// MessageStore defines the interface for the append-only chat log.
type MessageStore interface {
	// SaveMessage appends a message to the log, assigning its ID and
	// timestamp, and returns the normalized record.
	SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error)

	// GetMessages returns the full log in append order, oldest first.
	GetMessages(ctx context.Context) ([]models.Message, error)
}

// ProductStore defines the interface for the shared catalog.
type ProductStore interface {
	// SaveProduct inserts or replaces a product. A product without an ID
	// gets one assigned; a product with an existing ID is updated in place.
	SaveProduct(ctx context.Context, product *models.Product) (*models.Product, error)

	// GetProducts returns the full catalog in insertion order.
	GetProducts(ctx context.Context) ([]models.Product, error)
}
