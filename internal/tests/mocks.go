package tests

import (
	"context"
	"sync"
	"sync/atomic"

	"cafepos/internal/domain"
	"cafepos/internal/payment"
	"cafepos/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK SLOT STORE
// ──────────────────────────────────────────────

// MockSlotStore is an in-memory implementation of repository.SlotStore.
type MockSlotStore struct {
	mu    sync.RWMutex
	slots map[string]string

	// Counters for verification
	SetCallCount    int32
	RemoveCallCount int32

	// Error injection
	GetError    error
	SetError    error
	RemoveError error
}

// NewMockSlotStore creates a new mock slot store.
func NewMockSlotStore() *MockSlotStore {
	return &MockSlotStore{slots: make(map[string]string)}
}

func (m *MockSlotStore) Get(ctx context.Context, slot string) (string, error) {
	if m.GetError != nil {
		return "", m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.slots[slot]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (m *MockSlotStore) Set(ctx context.Context, slot, value string) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = value
	return nil
}

func (m *MockSlotStore) Remove(ctx context.Context, slot string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	if m.RemoveError != nil {
		return m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

// Put seeds a slot value for test setup.
func (m *MockSlotStore) Put(slot, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = value
}

// Value returns a slot value for test assertions.
func (m *MockSlotStore) Value(slot string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.slots[slot]
	return value, ok
}

// ──────────────────────────────────────────────
// MOCK RATE SOURCE
// ──────────────────────────────────────────────

// MockRates is a mock implementation of service.RateSource.
type MockRates struct {
	mu sync.Mutex

	// Cached is what Current returns.
	Cached *domain.ExchangeRate

	// Fresh is what ForceRefresh installs and returns. When nil,
	// ForceRefresh returns RefreshError (or the cached value).
	Fresh        *domain.ExchangeRate
	RefreshError error

	RefreshCallCount int32
}

// NewMockRates creates a new mock rate source.
func NewMockRates() *MockRates {
	return &MockRates{}
}

func (m *MockRates) Current() *domain.ExchangeRate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Cached == nil {
		return nil
	}
	rate := *m.Cached
	return &rate
}

func (m *MockRates) ForceRefresh(ctx context.Context) (*domain.ExchangeRate, error) {
	atomic.AddInt32(&m.RefreshCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RefreshError != nil {
		return nil, m.RefreshError
	}
	if m.Fresh != nil {
		rate := *m.Fresh
		m.Cached = &rate
	}
	if m.Cached == nil {
		return nil, nil
	}
	rate := *m.Cached
	return &rate, nil
}

// ──────────────────────────────────────────────
// MOCK RESOLUTION CLIENT
// ──────────────────────────────────────────────

// MockResolver is a mock implementation of payment.Client.
type MockResolver struct {
	mu       sync.Mutex
	watchers map[string]payment.SettledFunc
	last     payment.Request

	// Counters for verification
	RequestCallCount int32
	WatchCallCount   int32

	// Behavior configuration
	Invoice      string // invoice returned on success
	ResponseErr  string // explicit error payload instead of an invoice
	RequestError error  // transport-level error
	Block        bool   // block until ctx is done (timeout simulation)
}

// NewMockResolver creates a new mock resolution client.
func NewMockResolver() *MockResolver {
	return &MockResolver{
		watchers: make(map[string]payment.SettledFunc),
		Invoice:  "lnbc1testinvoice",
	}
}

func (m *MockResolver) RequestPayment(ctx context.Context, req payment.Request, onSettled payment.SettledFunc) (*payment.Response, error) {
	atomic.AddInt32(&m.RequestCallCount, 1)
	m.mu.Lock()
	m.last = req
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.RequestError != nil {
		return nil, m.RequestError
	}
	if m.ResponseErr != "" {
		return &payment.Response{Err: m.ResponseErr}, nil
	}

	m.mu.Lock()
	m.watchers[req.AttemptID] = onSettled
	m.mu.Unlock()
	return &payment.Response{Invoice: m.Invoice}, nil
}

func (m *MockResolver) WatchSettlement(ctx context.Context, req payment.Request, invoice string, onSettled payment.SettledFunc) error {
	atomic.AddInt32(&m.WatchCallCount, 1)
	m.mu.Lock()
	m.last = req
	m.watchers[req.AttemptID] = onSettled
	m.mu.Unlock()
	return nil
}

// Settle fires the registered settlement callback for the attempt.
func (m *MockResolver) Settle(attemptID string) bool {
	m.mu.Lock()
	fn, ok := m.watchers[attemptID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	fn(attemptID)
	return true
}

// LastRequest returns the most recent request for assertions.
func (m *MockResolver) LastRequest() payment.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

var _ payment.Client = (*MockResolver)(nil)
var _ repository.SlotStore = (*MockSlotStore)(nil)
