// Package payment defines the client interface for the external
// offer-resolution network that turns a locked sats amount into a
// Lightning invoice and later reports settlement.
package payment

import "context"

// Request is one payment-request call against a decoded offer.
type Request struct {
	Relay       string
	Destination string
	OfferID     string
	AmountSats  int64
	// ClientKey is the stable per-install identity the merchant presents
	// on the resolution network. Generated once and persisted, so the
	// network sees the same caller across restarts.
	ClientKey []byte
	// AttemptID identifies the checkout attempt the request belongs to.
	// Settlement callbacks echo it back so late or stale notifications
	// can be matched against the active attempt.
	AttemptID string
}

// Response is the resolution network's answer to a payment request.
// Exactly one of Invoice or Err is set.
type Response struct {
	Invoice string
	Err     string
}

// SettledFunc is invoked at most once when the counterparty pays the
// invoice issued for the given attempt. Delivery is not guaranteed.
type SettledFunc func(attemptID string)

// Client resolves offers into payment requests. Implementations wrap the
// relay transport; the coordinator treats them as a black box.
type Client interface {
	// RequestPayment issues a single payment request and registers
	// onSettled for the resulting invoice. It blocks until the network
	// answers or ctx is done.
	RequestPayment(ctx context.Context, req Request, onSettled SettledFunc) (*Response, error)

	// WatchSettlement re-registers a settlement callback for an invoice
	// issued by an earlier process. Used on recovery; it must not issue
	// a new payment request.
	WatchSettlement(ctx context.Context, req Request, invoice string, onSettled SettledFunc) error
}
