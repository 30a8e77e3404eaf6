package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState represents the current state of a checkout attempt.
type CheckoutState string

const (
	CheckoutStateIdle              CheckoutState = "IDLE"
	CheckoutStatePricingLocked     CheckoutState = "PRICING_LOCKED"
	CheckoutStateRequestingInvoice CheckoutState = "REQUESTING_INVOICE"
	CheckoutStateAwaitingPayment   CheckoutState = "AWAITING_PAYMENT"
	CheckoutStateSettled           CheckoutState = "SETTLED"
	CheckoutStateFailed            CheckoutState = "FAILED"
)

// Terminal reports whether the state admits no further transitions
// for the current attempt.
func (s CheckoutState) Terminal() bool {
	return s == CheckoutStateSettled || s == CheckoutStateFailed
}

// LockedQuote is the fiat/sats amount pair frozen at the moment checkout
// is committed. It is immutable for the life of the attempt: a reload
// re-derives the display amount from the quote, never from a fresh rate.
type LockedQuote struct {
	TotalFiat decimal.Decimal `json:"total_fiat"`
	TotalSats int64           `json:"total_sats"`
	LockedAt  time.Time       `json:"locked_at"`
}

// PaymentRequest is the encoded invoice returned by the resolution
// network, one-to-one with a LockedQuote.
type PaymentRequest struct {
	Invoice   string    `json:"invoice"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckoutSession is the full state of one checkout attempt. It is owned
// exclusively by the checkout coordinator; nothing else mutates it or the
// persisted slots backing it.
type CheckoutSession struct {
	AttemptID      string
	State          CheckoutState
	Cart           Cart
	Quote          *LockedQuote
	PaymentRequest *PaymentRequest
	OfferString    string
	FailureReason  string
}
