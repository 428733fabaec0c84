// Package memory provides an in-memory message log, used when no Redis is
// configured so the binary can run standalone. State does not survive a
// restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/storage"
)

// Ensure MessageStore implements the storage interface.
var _ storage.MessageStore = (*MessageStore)(nil)

// MessageStore implements storage.MessageStore on a mutex-guarded slice.
type MessageStore struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewMessageStore creates an empty in-memory message log.
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// SaveMessage appends a message, assigning its ID and timestamp.
func (s *MessageStore) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := *msg
	normalized.ID = uuid.New().String()
	normalized.Timestamp = time.Now().Unix()

	s.mu.Lock()
	s.messages = append(s.messages, normalized)
	s.mu.Unlock()

	return &normalized, nil
}

// GetMessages returns a copy of the full log in append order.
func (s *MessageStore) GetMessages(ctx context.Context) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}
