package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"cafepos/internal/repository"
)

// SlotStore is a Redis implementation of repository.SlotStore. Slots are
// plain string keys with no TTL; checkout state must survive arbitrary
// downtime between restarts.
type SlotStore struct {
	client *redis.Client
	prefix string
}

// NewSlotStore creates a new Redis slot store. The prefix namespaces slot
// names so several installs can share an instance.
func NewSlotStore(client *redis.Client, prefix string) *SlotStore {
	return &SlotStore{client: client, prefix: prefix}
}

// Get retrieves the value of a slot.
func (s *SlotStore) Get(ctx context.Context, slot string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+slot).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set durably writes the value of a slot.
func (s *SlotStore) Set(ctx context.Context, slot, value string) error {
	return s.client.Set(ctx, s.prefix+slot, value, 0).Err()
}

// Remove deletes a slot. Removing an absent slot is not an error.
func (s *SlotStore) Remove(ctx context.Context, slot string) error {
	return s.client.Del(ctx, s.prefix+slot).Err()
}

var _ repository.SlotStore = (*SlotStore)(nil)
