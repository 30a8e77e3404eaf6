package tests

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// seedAwaitingPayment persists the slots of an attempt that was awaiting
// settlement when the process stopped.
func seedAwaitingPayment(t *testing.T, f *checkoutFixture, attemptID string) {
	t.Helper()

	f.slots.Put(repository.SlotCart, `{"lines":[{"item_id":"latte","name":"latte","unit_price":"5","quantity":2}]}`)
	f.slots.Put(repository.SlotCheckoutState, string(domain.CheckoutStateAwaitingPayment))
	f.slots.Put(repository.SlotAttemptID, attemptID)
	f.slots.Put(repository.SlotOfferRef, f.offer)

	quote, err := json.Marshal(domain.LockedQuote{
		TotalFiat: mustDecimal(t, "10.00"),
		TotalSats: 10000,
		LockedAt:  time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.slots.Put(repository.SlotLockedQuote, string(quote))

	request, err := json.Marshal(domain.PaymentRequest{
		Invoice:   "lnbc1persisted",
		CreatedAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.slots.Put(repository.SlotPaymentRequest, string(request))
}

func TestRecovery_ResumesAwaitingPayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	seedAwaitingPayment(t, f, "attempt-1")

	if err := f.ledger.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.coordinator.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := f.coordinator.Session()
	if session.State != domain.CheckoutStateAwaitingPayment {
		t.Fatalf("expected AWAITING_PAYMENT, got %s", session.State)
	}
	if session.PaymentRequest == nil || session.PaymentRequest.Invoice != "lnbc1persisted" {
		t.Fatalf("expected the persisted payment request, got %+v", session.PaymentRequest)
	}
	if session.Quote == nil || session.Quote.TotalSats != 10000 {
		t.Fatalf("expected the persisted quote, got %+v", session.Quote)
	}

	// No new outbound request; a fresh settlement subscription instead.
	if n := atomic.LoadInt32(&f.resolver.RequestCallCount); n != 0 {
		t.Errorf("recovery must not re-request an invoice, got %d calls", n)
	}
	if n := atomic.LoadInt32(&f.resolver.WatchCallCount); n != 1 {
		t.Errorf("expected 1 settlement re-subscription, got %d", n)
	}

	// The re-subscribed watcher still completes the attempt.
	if !f.resolver.Settle("attempt-1") {
		t.Fatal("no settlement watcher registered after recovery")
	}
	if got := f.coordinator.Session().State; got != domain.CheckoutStateSettled {
		t.Errorf("expected SETTLED, got %s", got)
	}
}

func TestRecovery_QuoteIsAuthoritativeOverFreshRate(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	// The rate has drifted since the quote was locked. The persisted
	// quote, not the fresh rate, decides the amount.
	f.rates.Cached = rateAt(t, "250000")

	f.slots.Put(repository.SlotCart, `{"lines":[{"item_id":"latte","name":"latte","unit_price":"5","quantity":2}]}`)
	f.slots.Put(repository.SlotCheckoutState, string(domain.CheckoutStateRequestingInvoice))
	f.slots.Put(repository.SlotAttemptID, "attempt-2")
	f.slots.Put(repository.SlotOfferRef, f.offer)
	quote, err := json.Marshal(domain.LockedQuote{
		TotalFiat: mustDecimal(t, "10.00"),
		TotalSats: 10000,
		LockedAt:  time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.slots.Put(repository.SlotLockedQuote, string(quote))

	if err := f.ledger.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.coordinator.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := waitForState(t, f.coordinator, domain.CheckoutStateAwaitingPayment)
	if session.Quote.TotalSats != 10000 {
		t.Errorf("quote re-derived after restart: got %d sats, want 10000", session.Quote.TotalSats)
	}
	if got := f.resolver.LastRequest().AmountSats; got != 10000 {
		t.Errorf("re-issued request carried %d sats, want the locked 10000", got)
	}
	if n := atomic.LoadInt32(&f.rates.RefreshCallCount); n != 0 {
		t.Errorf("recovery must not refresh the rate, got %d calls", n)
	}
}

func TestRecovery_InconsistentStateFallsBackToIdle(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	// A payment request without a locked quote is not a resumable state.
	f.slots.Put(repository.SlotCart, `{"lines":[{"item_id":"latte","name":"latte","unit_price":"5","quantity":1}]}`)
	f.slots.Put(repository.SlotCheckoutState, string(domain.CheckoutStateAwaitingPayment))
	f.slots.Put(repository.SlotAttemptID, "attempt-3")
	f.slots.Put(repository.SlotOfferRef, f.offer)
	f.slots.Put(repository.SlotPaymentRequest, `{"invoice":"lnbc1orphan","created_at":"2025-01-01T00:00:00Z"}`)

	if err := f.ledger.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.coordinator.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.coordinator.Session().State; got != domain.CheckoutStateIdle {
		t.Fatalf("expected IDLE, got %s", got)
	}
	if _, ok := f.slots.Value(repository.SlotPaymentRequest); ok {
		t.Error("orphan payment request slot should be discarded")
	}
	if n := atomic.LoadInt32(&f.resolver.RequestCallCount); n != 0 {
		t.Errorf("expected no resolution call, got %d", n)
	}
	if n := atomic.LoadInt32(&f.resolver.WatchCallCount); n != 0 {
		t.Errorf("expected no settlement subscription, got %d", n)
	}
}

func TestRecovery_CorruptQuoteTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.slots.Put(repository.SlotCart, `{"lines":[{"item_id":"latte","name":"latte","unit_price":"5","quantity":1}]}`)
	f.slots.Put(repository.SlotCheckoutState, string(domain.CheckoutStateAwaitingPayment))
	f.slots.Put(repository.SlotAttemptID, "attempt-4")
	f.slots.Put(repository.SlotOfferRef, f.offer)
	f.slots.Put(repository.SlotLockedQuote, "{corrupt")
	f.slots.Put(repository.SlotPaymentRequest, `{"invoice":"lnbc1x","created_at":"2025-01-01T00:00:00Z"}`)

	if err := f.ledger.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.coordinator.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.coordinator.Session().State; got != domain.CheckoutStateIdle {
		t.Errorf("expected IDLE after corrupt quote, got %s", got)
	}
}

func TestRecovery_NothingPersistedStartsIdle(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	if err := f.coordinator.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.coordinator.Session().State; got != domain.CheckoutStateIdle {
		t.Errorf("expected IDLE, got %s", got)
	}
	if n := atomic.LoadInt32(&f.slots.RemoveCallCount); n != 0 {
		t.Errorf("nothing to clear on a fresh start, got %d removes", n)
	}
}
