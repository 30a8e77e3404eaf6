package repository

import "context"

// Slot names for persisted checkout state. Backends namespace them with a
// fixed application prefix.
const (
	SlotCart           = "cart"
	SlotCheckoutState  = "checkout_state"
	SlotLockedQuote    = "locked_quote"
	SlotPaymentRequest = "payment_request"
	SlotOfferRef       = "offer_ref"
	SlotAttemptID      = "attempt_id"
	SlotOfferString    = "offer_string"
	SlotClientKey      = "client_key"
)

// CheckoutSlots lists every slot owned by the checkout coordinator and
// cleared on terminal transitions. The cart slot is owned by the ledger.
var CheckoutSlots = []string{
	SlotCheckoutState,
	SlotLockedQuote,
	SlotPaymentRequest,
	SlotOfferRef,
	SlotAttemptID,
}

// SlotStore is a flat durable key-value store of named string slots.
// Get returns ErrNotFound for absent slots; callers treat unparseable
// values the same as absent.
type SlotStore interface {
	// Get retrieves the value of a slot.
	Get(ctx context.Context, slot string) (string, error)

	// Set durably writes the value of a slot.
	Set(ctx context.Context, slot, value string) error

	// Remove deletes a slot. Removing an absent slot is not an error.
	Remove(ctx context.Context, slot string) error
}
