// Package session maps opaque session identifiers to verified usernames.
//
// A session is created at login, carries exactly one username, and is
// destroyed at logout. Resolving a session re-queries the credential store
// every time (no identity caching): if the user has vanished the session is
// invalidated rather than trusted.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/storage"
)

// ErrNoSession indicates the session id is unknown, expired, or no longer
// resolves to a live user. Gate checks treat this as anonymous, never as a
// crash.
var ErrNoSession = errors.New("no such session")

// Session binds an opaque id to a verified username.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store defines the behaviour required by the session manager.
type Store interface {
	// Save persists the session until its ExpiresAt.
	Save(ctx context.Context, s *Session) error

	// Get returns the session, or ErrNoSession if absent or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Touch extends the session's expiry (rolling TTL). Missing sessions
	// return ErrNoSession.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes the session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Close releases underlying resources.
	Close() error
}

// Manager creates, resolves, and destroys sessions.
type Manager struct {
	store Store
	users storage.UserStore
	ttl   time.Duration
}

// NewManager wires a session manager over the given store. ttl governs both
// the initial expiry and the rolling refresh applied on each resolve.
func NewManager(store Store, users storage.UserStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{
		store: store,
		users: users,
		ttl:   ttl,
	}
}

// Create establishes a new session for the verified username and returns it.
func (m *Manager) Create(ctx context.Context, username string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// Resolve turns a session id back into a live identity. The username is
// re-resolved against the credential store on every call; a session whose
// user no longer exists is destroyed and reported as ErrNoSession. A
// successful resolve refreshes the session's expiry.
func (m *Manager) Resolve(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Username == "" {
		return nil, ErrNoSession
	}

	user, err := m.users.GetUserByUsername(ctx, s.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = m.store.Delete(ctx, id)
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}

	if err := m.store.Touch(ctx, id, time.Now().Add(m.ttl)); err != nil && !errors.Is(err, ErrNoSession) {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	return user, nil
}

// Destroy removes the session, clearing its identity.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// TTL exposes the configured session lifetime (used for cookie expiry).
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
