package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cafepos/internal/repository"
)

// SlotStore is a PostgreSQL implementation of repository.SlotStore backed
// by a single key-value table.
type SlotStore struct {
	q      Querier
	prefix string
}

// NewSlotStore creates a new PostgreSQL slot store. The prefix namespaces
// slot names so several installs can share a database.
func NewSlotStore(db *sql.DB, prefix string) *SlotStore {
	return &SlotStore{q: db, prefix: prefix}
}

// NewSlotStoreWithTx creates a slot store using a transaction.
func NewSlotStoreWithTx(tx *sql.Tx, prefix string) *SlotStore {
	return &SlotStore{q: tx, prefix: prefix}
}

// Get retrieves the value of a slot.
func (s *SlotStore) Get(ctx context.Context, slot string) (string, error) {
	query := `SELECT value FROM slots WHERE key = $1`

	var value string
	err := s.q.QueryRowContext(ctx, query, s.prefix+slot).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set durably writes the value of a slot.
func (s *SlotStore) Set(ctx context.Context, slot, value string) error {
	query := `
		INSERT INTO slots (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := s.q.ExecContext(ctx, query, s.prefix+slot, value)
	return err
}

// Remove deletes a slot. Removing an absent slot is not an error.
func (s *SlotStore) Remove(ctx context.Context, slot string) error {
	query := `DELETE FROM slots WHERE key = $1`

	_, err := s.q.ExecContext(ctx, query, s.prefix+slot)
	return err
}

// EnsureSchema creates the slots table if it does not exist.
func (s *SlotStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS slots (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`

	_, err := s.q.ExecContext(ctx, query)
	return err
}

var _ repository.SlotStore = (*SlotStore)(nil)
