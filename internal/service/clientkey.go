package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"cafepos/internal/repository"
)

// LoadClientKey returns the stable per-install client key used on the
// resolution network, generating and persisting one on first run. The key
// is 32 random bytes stored hex-encoded; the only contract is that it is
// stable across restarts.
func LoadClientKey(ctx context.Context, slots repository.SlotStore) ([]byte, error) {
	stored, err := slots.Get(ctx, repository.SlotClientKey)
	if err == nil {
		key, decodeErr := hex.DecodeString(stored)
		if decodeErr == nil && len(key) == 32 {
			return key, nil
		}
		// Corrupt slot: fall through and regenerate.
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate client key: %w", err)
	}
	if err := slots.Set(ctx, repository.SlotClientKey, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}
