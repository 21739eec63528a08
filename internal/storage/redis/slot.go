// Package redis stores the snapshot slot under a Redis key.
package redis

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/stall-orders/internal/storage/snapshot"
)

const keyPrefix = "stall:slot:"

var _ snapshot.Slot = (*Slot)(nil)

// Slot keeps one named snapshot in the key stall:slot:<name>.
type Slot struct {
	client *redis.Client
	key    string
}

// NewSlot returns a Slot for name backed by client.
func NewSlot(client *redis.Client, name string) *Slot {
	return &Slot{client: client, key: keyPrefix + name}
}

// NewClient parses a redis:// URL when given, and falls back to addr
// otherwise.
func NewClient(url, addr, password string, db int) (*redis.Client, error) {
	if url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}

// Key returns the Redis key of the slot.
func (s *Slot) Key() string {
	return s.key
}

// Read returns the stored bytes, or nil when the key is absent.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", s.key)
	}
	return data, nil
}

// Write stores data without expiry.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", s.key)
	}
	return nil
}

// Ping checks the connection.
func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Slot) Close() error {
	return s.client.Close()
}
