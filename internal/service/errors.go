package service

import "errors"

var (
	// ErrEmptyCart is returned when checkout is committed with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidItemID is returned when an item ID is empty or unknown.
	ErrInvalidItemID = errors.New("invalid item id")

	// ErrPriceUnavailable is returned when no exchange rate can be obtained
	// for the checkout commit. The session stays in Idle.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrZeroAmount is returned when the cart converts to zero sats.
	// It blocks the commit rather than surfacing a failed attempt.
	ErrZeroAmount = errors.New("settlement amount is zero")

	// ErrNoActiveCheckout is returned when cancel or reset is called in a
	// state that does not admit it.
	ErrNoActiveCheckout = errors.New("no active checkout")

	// ErrNoOffer is returned when the catalog carries no merchant offer string.
	ErrNoOffer = errors.New("no merchant offer configured")
)
