package auth

import (
	"context"

	"github.com/shopcast/shopcast/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password,
// passkeys, OAuth, etc.) without changing the service layer code.
type Authenticator interface {
	// Register creates a new account for username with the given credential.
	// Returns the created user, or ErrAlreadyRegistered if the username is
	// taken. Exactly one record is inserted on success, zero on failure.
	Register(ctx context.Context, username, credential string) (*models.User, error)

	// Login verifies the credential and returns the user if valid.
	// Returns ErrUserNotFound for an unknown username and ErrBadCredential
	// for a wrong password. Neither path mutates the credential store.
	Login(ctx context.Context, username, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements before any store access happens.
	ValidateCredential(credential string) error
}
