// Package redis provides a Redis-backed implementation of the append-only
// message log. Messages are JSON-encoded entries on a single list, so append
// order is preserved by the store itself.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/storage"
)

const defaultKey = "shopcast:messages"

// Ensure MessageStore implements the storage interface.
var _ storage.MessageStore = (*MessageStore)(nil)

// Config captures connection options for the message log.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
	Key      string
}

// MessageStore implements storage.MessageStore on a Redis list.
type MessageStore struct {
	client *goredis.Client
	key    string
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg Config) (*MessageStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultKey
	}
	return &MessageStore{client: client, key: key}, nil
}

// SaveMessage appends a message to the log, assigning its ID and timestamp.
func (s *MessageStore) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	normalized := *msg
	normalized.ID = uuid.New().String()
	normalized.Timestamp = time.Now().Unix()

	data, err := json.Marshal(&normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: encode message: %v", storage.ErrRejected, err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", classify(err))
	}
	return &normalized, nil
}

// GetMessages returns the full log in append order, oldest first.
func (s *MessageStore) GetMessages(ctx context.Context) ([]models.Message, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read message log: %w", classify(err))
	}

	messages := make([]models.Message, 0, len(raw))
	for _, entry := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("%w: decode message: %v", storage.ErrRejected, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Close releases the Redis connection.
func (s *MessageStore) Close() error {
	return s.client.Close()
}

// classify maps go-redis errors to the storage sentinel taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if err == goredis.Nil {
		return storage.ErrNotFound
	}
	// Everything else from the client is a connectivity-class failure:
	// refused, timed out, closed handle.
	return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
}
