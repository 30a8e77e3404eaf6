package tests

import (
	"context"
	"sync/atomic"
	"testing"

	"cafepos/internal/domain"
)

func TestCheckout_RequestTimeoutFailsAttempt(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.rates.Cached = rateAt(t, "100000")
	f.resolver.Block = true

	if _, err := f.ledger.Add(ctx, menuItem(t, "latte", "5.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := f.coordinator.Commit(ctx, f.offer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.State != domain.CheckoutStateFailed {
		t.Fatalf("expected FAILED, got %s", session.State)
	}
	if session.FailureReason != "timeout" {
		t.Errorf("expected reason %q, got %q", "timeout", session.FailureReason)
	}

	// Cart is preserved so the user can retry.
	if f.ledger.Snapshot().IsEmpty() {
		t.Error("cart should be preserved on timeout")
	}

	// Retry from Idle issues a fresh request.
	f.resolver.Block = false
	if _, err := f.coordinator.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retried, err := f.coordinator.Commit(ctx, f.offer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retried.State != domain.CheckoutStateAwaitingPayment {
		t.Fatalf("expected AWAITING_PAYMENT on retry, got %s", retried.State)
	}
	if n := atomic.LoadInt32(&f.resolver.RequestCallCount); n != 2 {
		t.Errorf("expected 2 resolution calls across both attempts, got %d", n)
	}
}
