package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DevClient is an in-process resolution client for development and
// demos. It fabricates invoices immediately and settles them when
// Settle is called (wired to a dev-only HTTP route).
type DevClient struct {
	mu       sync.Mutex
	watchers map[string]SettledFunc // attemptID -> callback
	serial   int
}

// NewDevClient creates a development resolution client.
func NewDevClient() *DevClient {
	return &DevClient{watchers: make(map[string]SettledFunc)}
}

// RequestPayment fabricates an invoice and registers the settlement
// callback for the attempt.
func (c *DevClient) RequestPayment(ctx context.Context, req Request, onSettled SettledFunc) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.Lock()
	c.serial++
	invoice := fmt.Sprintf("lnbcdev%d%damt%d", time.Now().Unix(), c.serial, req.AmountSats)
	c.watchers[req.AttemptID] = onSettled
	c.mu.Unlock()

	return &Response{Invoice: invoice}, nil
}

// WatchSettlement re-registers a callback for a previously issued invoice.
func (c *DevClient) WatchSettlement(ctx context.Context, req Request, invoice string, onSettled SettledFunc) error {
	c.mu.Lock()
	c.watchers[req.AttemptID] = onSettled
	c.mu.Unlock()
	return nil
}

// Settle fires the settlement callback registered for the attempt.
// Returns false if no watcher is registered.
func (c *DevClient) Settle(attemptID string) bool {
	c.mu.Lock()
	fn, ok := c.watchers[attemptID]
	if ok {
		delete(c.watchers, attemptID)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	fn(attemptID)
	return true
}

var _ Client = (*DevClient)(nil)
