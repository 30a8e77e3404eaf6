package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// CartLedger holds the in-memory cart and mirrors every change into the
// slot store so the cart survives restarts.
type CartLedger struct {
	mu    sync.Mutex
	cart  domain.Cart
	slots repository.SlotStore
}

// NewCartLedger creates a new CartLedger.
func NewCartLedger(slots repository.SlotStore) *CartLedger {
	return &CartLedger{slots: slots}
}

// Restore loads the persisted cart, if any. An unparseable value is
// treated as absent.
func (l *CartLedger) Restore(ctx context.Context) error {
	raw, err := l.slots.Get(ctx, repository.SlotCart)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		// Corrupt slot: start empty rather than failing startup.
		return l.slots.Remove(ctx, repository.SlotCart)
	}

	// Drop any line that violates the quantity invariant.
	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.Quantity >= 1 && line.ItemID != "" {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	l.mu.Lock()
	l.cart = cart
	l.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current cart.
func (l *CartLedger) Snapshot() domain.Cart {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Clone()
}

// Add adds one unit of the given item, incrementing the quantity if a
// line for it already exists.
func (l *CartLedger) Add(ctx context.Context, item domain.MenuItem) (domain.Cart, error) {
	if item.ID == "" {
		return domain.Cart{}, ErrInvalidItemID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	for i := range l.cart.Lines {
		if l.cart.Lines[i].ItemID == item.ID {
			l.cart.Lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		l.cart.Lines = append(l.cart.Lines, domain.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  1,
		})
	}

	return l.mirrorLocked(ctx)
}

// SetQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line.
func (l *CartLedger) SetQuantity(ctx context.Context, itemID string, quantity int) (domain.Cart, error) {
	if itemID == "" {
		return domain.Cart{}, ErrInvalidItemID
	}

	if quantity <= 0 {
		return l.Remove(ctx, itemID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.cart.Lines {
		if l.cart.Lines[i].ItemID == itemID {
			l.cart.Lines[i].Quantity = quantity
			return l.mirrorLocked(ctx)
		}
	}
	return domain.Cart{}, ErrInvalidItemID
}

// Remove removes the line for the given item.
func (l *CartLedger) Remove(ctx context.Context, itemID string) (domain.Cart, error) {
	if itemID == "" {
		return domain.Cart{}, ErrInvalidItemID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lines := l.cart.Lines[:0]
	for _, line := range l.cart.Lines {
		if line.ItemID != itemID {
			lines = append(lines, line)
		}
	}
	l.cart.Lines = lines

	return l.mirrorLocked(ctx)
}

// Clear removes every line.
func (l *CartLedger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cart.Lines = nil
	_, err := l.mirrorLocked(ctx)
	return err
}

// mirrorLocked persists the cart and returns a snapshot. Callers hold l.mu.
func (l *CartLedger) mirrorLocked(ctx context.Context) (domain.Cart, error) {
	data, err := json.Marshal(l.cart)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := l.slots.Set(ctx, repository.SlotCart, string(data)); err != nil {
		return domain.Cart{}, err
	}
	return l.cart.Clone(), nil
}
