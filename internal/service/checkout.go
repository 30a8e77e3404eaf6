package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"cafepos/internal/domain"
	"cafepos/internal/noffer"
	"cafepos/internal/payment"
	"cafepos/internal/pricing"
	"cafepos/internal/repository"
)

// RateSource exposes the cached exchange rate and a synchronous refresh
// for the commit path. Satisfied by *RateFeed.
type RateSource interface {
	Current() *domain.ExchangeRate
	ForceRefresh(ctx context.Context) (*domain.ExchangeRate, error)
}

// CheckoutCoordinator owns the checkout state machine: locking a quote,
// issuing the payment request exactly once per attempt, observing
// settlement, and keeping the persisted slots consistent across restarts.
//
// All transitions are serialized on a single mutex. Asynchronous events
// (request completion, timeout, settlement callbacks) carry the attempt ID
// they belong to and are dropped when the attempt has been superseded or
// has reached a terminal state.
type CheckoutCoordinator struct {
	ledger         *CartLedger
	rates          RateSource
	slots          repository.SlotStore
	client         payment.Client
	clientKey      []byte
	requestTimeout time.Duration

	mu      sync.Mutex
	session domain.CheckoutSession
}

// NewCheckoutCoordinator creates a new coordinator with an Idle session.
func NewCheckoutCoordinator(
	ledger *CartLedger,
	rates RateSource,
	slots repository.SlotStore,
	client payment.Client,
	clientKey []byte,
	requestTimeout time.Duration,
) *CheckoutCoordinator {
	return &CheckoutCoordinator{
		ledger:         ledger,
		rates:          rates,
		slots:          slots,
		client:         client,
		clientKey:      clientKey,
		requestTimeout: requestTimeout,
		session:        domain.CheckoutSession{State: domain.CheckoutStateIdle},
	}
}

// Session returns a snapshot of the current checkout session.
func (c *CheckoutCoordinator) Session() domain.CheckoutSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *CheckoutCoordinator) snapshotLocked() domain.CheckoutSession {
	s := c.session
	s.Cart = c.session.Cart.Clone()
	if c.session.Quote != nil {
		q := *c.session.Quote
		s.Quote = &q
	}
	if c.session.PaymentRequest != nil {
		p := *c.session.PaymentRequest
		s.PaymentRequest = &p
	}
	return s
}

// Commit locks a quote for the current cart and issues the payment
// request. It is idempotent under duplicate triggers: a commit arriving
// while an attempt is already underway returns the current session
// without a second outbound request.
func (c *CheckoutCoordinator) Commit(ctx context.Context, offerString string) (domain.CheckoutSession, error) {
	c.mu.Lock()

	if c.session.State != domain.CheckoutStateIdle {
		// An attempt is underway or terminal; collapse the trigger.
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, nil
	}

	if offerString == "" {
		c.mu.Unlock()
		return domain.CheckoutSession{State: domain.CheckoutStateIdle}, ErrNoOffer
	}

	cart := c.ledger.Snapshot()
	if cart.IsEmpty() {
		c.mu.Unlock()
		return domain.CheckoutSession{State: domain.CheckoutStateIdle}, ErrEmptyCart
	}

	// Obtain a rate: cached first, then one synchronous refresh.
	rate := c.rates.Current()
	if rate == nil {
		fresh, err := c.rates.ForceRefresh(ctx)
		if err != nil || fresh == nil {
			c.mu.Unlock()
			return domain.CheckoutSession{State: domain.CheckoutStateIdle}, ErrPriceUnavailable
		}
		rate = fresh
	}

	totalFiat := cart.TotalFiat()
	totalSats := pricing.ToSats(totalFiat, &rate.Value)
	if totalSats == 0 {
		// Zero-value or degenerate cart: block the commit, stay Idle.
		c.mu.Unlock()
		return domain.CheckoutSession{State: domain.CheckoutStateIdle}, ErrZeroAmount
	}

	attemptID := uuid.New().String()
	quote := &domain.LockedQuote{
		TotalFiat: totalFiat,
		TotalSats: totalSats,
		LockedAt:  time.Now(),
	}

	c.session = domain.CheckoutSession{
		AttemptID:   attemptID,
		State:       domain.CheckoutStatePricingLocked,
		Cart:        cart,
		Quote:       quote,
		OfferString: offerString,
	}

	// Persist the lock before the outbound request so a reload lands back
	// in RequestingInvoice with this quote, never re-locking a new price.
	c.persistAttemptLocked(ctx)

	c.session.State = domain.CheckoutStateRequestingInvoice
	c.persistStateLocked(ctx)
	c.mu.Unlock()

	c.issueRequest(ctx, attemptID, quote, offerString)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(), nil
}

// issueRequest decodes the offer and performs the single outbound payment
// request for the attempt. The result is applied only if the attempt is
// still the active one.
func (c *CheckoutCoordinator) issueRequest(ctx context.Context, attemptID string, quote *domain.LockedQuote, offerString string) {
	offer, err := noffer.Decode(offerString)
	if err != nil {
		c.fail(ctx, attemptID, "invalid offer string")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.RequestPayment(reqCtx, payment.Request{
		Relay:       offer.Relay,
		Destination: offer.Destination,
		OfferID:     offer.OfferID,
		AmountSats:  quote.TotalSats,
		AttemptID:   attemptID,
		ClientKey:   c.clientKey,
	}, c.onSettled)

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		c.fail(ctx, attemptID, "timeout")
	case err != nil:
		c.fail(ctx, attemptID, "payment request failed: "+err.Error())
	case resp.Err != "":
		c.fail(ctx, attemptID, resp.Err)
	default:
		c.acceptInvoice(ctx, attemptID, resp.Invoice)
	}
}

// acceptInvoice records the payment request and moves the attempt to
// AwaitingPayment. A stale attempt's invoice is discarded.
func (c *CheckoutCoordinator) acceptInvoice(ctx context.Context, attemptID, invoice string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.AttemptID != attemptID || c.session.State != domain.CheckoutStateRequestingInvoice {
		return
	}

	c.session.PaymentRequest = &domain.PaymentRequest{
		Invoice:   invoice,
		CreatedAt: time.Now(),
	}
	c.session.State = domain.CheckoutStateAwaitingPayment

	// A request is live on the network now. If persistence fails we keep
	// the in-memory session and the listener rather than risking a
	// duplicate outbound request after a crash-free continue.
	if data, err := json.Marshal(c.session.PaymentRequest); err == nil {
		if err := c.slots.Set(ctx, repository.SlotPaymentRequest, string(data)); err != nil {
			log.Printf("checkout: failed to persist payment request: %v", err)
		}
	}
	c.persistStateLocked(ctx)
}

// onSettled is the settlement callback handed to the resolution client.
func (c *CheckoutCoordinator) onSettled(attemptID string) {
	c.HandleSettlement(context.Background(), attemptID)
}

// HandleSettlement processes a settlement notification for an attempt.
// It is idempotent: callbacks for superseded attempts, already-settled
// sessions, or cancelled sessions are dropped.
func (c *CheckoutCoordinator) HandleSettlement(ctx context.Context, attemptID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.AttemptID != attemptID || c.session.State != domain.CheckoutStateAwaitingPayment {
		return false
	}

	c.session.State = domain.CheckoutStateSettled
	log.Printf("checkout: attempt %s settled", attemptID)

	if err := c.ledger.Clear(ctx); err != nil {
		log.Printf("checkout: failed to clear cart after settlement: %v", err)
	}
	c.clearSlotsLocked(ctx)
	return true
}

// Cancel abandons the current attempt and returns to Idle. The cart is
// preserved. Valid from RequestingInvoice or AwaitingPayment; a late
// settlement callback for the cancelled attempt is ignored because the
// coordinator no longer recognizes it.
func (c *CheckoutCoordinator) Cancel(ctx context.Context) (domain.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.State {
	case domain.CheckoutStateRequestingInvoice, domain.CheckoutStateAwaitingPayment:
	default:
		return c.snapshotLocked(), ErrNoActiveCheckout
	}

	log.Printf("checkout: attempt %s cancelled", c.session.AttemptID)
	c.session = domain.CheckoutSession{State: domain.CheckoutStateIdle}
	c.clearSlotsLocked(ctx)
	return c.snapshotLocked(), nil
}

// Reset returns a terminal session (Settled or Failed) to Idle so a new
// attempt can begin. Slots were already cleared on the terminal entry.
func (c *CheckoutCoordinator) Reset(ctx context.Context) (domain.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.State.Terminal() {
		return c.snapshotLocked(), ErrNoActiveCheckout
	}

	c.session = domain.CheckoutSession{State: domain.CheckoutStateIdle}
	return c.snapshotLocked(), nil
}

// fail moves the attempt to Failed(reason), clearing slots but keeping
// the cart so the user can retry. Stale attempts are dropped.
func (c *CheckoutCoordinator) fail(ctx context.Context, attemptID, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.AttemptID != attemptID || c.session.State.Terminal() {
		return
	}

	log.Printf("checkout: attempt %s failed: %s", attemptID, reason)
	c.session.State = domain.CheckoutStateFailed
	c.session.FailureReason = reason
	c.session.PaymentRequest = nil
	c.clearSlotsLocked(ctx)
}

// Restore rebuilds the session from persisted slots at startup. A
// consistent AwaitingPayment snapshot resumes with a fresh settlement
// subscription and no new outbound request; a snapshot interrupted during
// the lock-then-request window resumes by re-issuing the request with the
// already-locked quote; anything inconsistent is discarded.
func (c *CheckoutCoordinator) Restore(ctx context.Context) error {
	state, err := c.getSlot(ctx, repository.SlotCheckoutState)
	if err != nil {
		return err
	}
	if state == "" {
		return nil
	}

	attemptID, _ := c.getSlot(ctx, repository.SlotAttemptID)
	offerString, _ := c.getSlot(ctx, repository.SlotOfferRef)
	quote := c.readQuote(ctx)
	request := c.readPaymentRequest(ctx)
	cart := c.ledger.Snapshot()

	switch domain.CheckoutState(state) {
	case domain.CheckoutStateAwaitingPayment:
		if attemptID == "" || offerString == "" || quote == nil || request == nil || cart.IsEmpty() {
			break
		}
		offer, err := noffer.Decode(offerString)
		if err != nil {
			break
		}

		c.mu.Lock()
		c.session = domain.CheckoutSession{
			AttemptID:      attemptID,
			State:          domain.CheckoutStateAwaitingPayment,
			Cart:           cart,
			Quote:          quote,
			PaymentRequest: request,
			OfferString:    offerString,
		}
		c.mu.Unlock()

		// Stale listener handles are never trusted across a restart;
		// always re-subscribe fresh.
		if err := c.client.WatchSettlement(ctx, payment.Request{
			Relay:       offer.Relay,
			Destination: offer.Destination,
			OfferID:     offer.OfferID,
			AmountSats:  quote.TotalSats,
			AttemptID:   attemptID,
			ClientKey:   c.clientKey,
		}, request.Invoice, c.onSettled); err != nil {
			log.Printf("checkout: failed to re-subscribe settlement watcher: %v", err)
		}
		log.Printf("checkout: resumed attempt %s awaiting payment", attemptID)
		return nil

	case domain.CheckoutStatePricingLocked, domain.CheckoutStateRequestingInvoice:
		if attemptID == "" || offerString == "" || quote == nil || cart.IsEmpty() {
			break
		}

		c.mu.Lock()
		c.session = domain.CheckoutSession{
			AttemptID:   attemptID,
			State:       domain.CheckoutStateRequestingInvoice,
			Cart:        cart,
			Quote:       quote,
			OfferString: offerString,
		}
		c.persistStateLocked(ctx)
		c.mu.Unlock()

		log.Printf("checkout: resuming attempt %s with locked quote of %d sats", attemptID, quote.TotalSats)
		go c.issueRequest(context.Background(), attemptID, quote, offerString)
		return nil
	}

	// Inconsistent or unknown snapshot: discard it.
	c.mu.Lock()
	c.clearSlotsLocked(ctx)
	c.session = domain.CheckoutSession{State: domain.CheckoutStateIdle}
	c.mu.Unlock()
	return nil
}

// persistAttemptLocked writes the freshly locked attempt. Callers hold c.mu.
func (c *CheckoutCoordinator) persistAttemptLocked(ctx context.Context) {
	if data, err := json.Marshal(c.session.Quote); err == nil {
		if err := c.slots.Set(ctx, repository.SlotLockedQuote, string(data)); err != nil {
			log.Printf("checkout: failed to persist quote: %v", err)
		}
	}
	if err := c.slots.Set(ctx, repository.SlotAttemptID, c.session.AttemptID); err != nil {
		log.Printf("checkout: failed to persist attempt id: %v", err)
	}
	if err := c.slots.Set(ctx, repository.SlotOfferRef, c.session.OfferString); err != nil {
		log.Printf("checkout: failed to persist offer reference: %v", err)
	}
	c.persistStateLocked(ctx)
}

// persistStateLocked writes the state slot. Callers hold c.mu.
func (c *CheckoutCoordinator) persistStateLocked(ctx context.Context) {
	if err := c.slots.Set(ctx, repository.SlotCheckoutState, string(c.session.State)); err != nil {
		log.Printf("checkout: failed to persist state: %v", err)
	}
}

// clearSlotsLocked removes every checkout slot. Removes are sequential;
// a partial failure leaves stale-but-ignorable data that the next Restore
// discards as inconsistent. Callers hold c.mu.
func (c *CheckoutCoordinator) clearSlotsLocked(ctx context.Context) {
	for _, slot := range repository.CheckoutSlots {
		if err := c.slots.Remove(ctx, slot); err != nil {
			log.Printf("checkout: failed to clear slot %s: %v", slot, err)
		}
	}
}

func (c *CheckoutCoordinator) getSlot(ctx context.Context, slot string) (string, error) {
	value, err := c.slots.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (c *CheckoutCoordinator) readQuote(ctx context.Context) *domain.LockedQuote {
	raw, err := c.getSlot(ctx, repository.SlotLockedQuote)
	if err != nil || raw == "" {
		return nil
	}
	var quote domain.LockedQuote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		return nil
	}
	if quote.TotalSats <= 0 {
		return nil
	}
	return &quote
}

func (c *CheckoutCoordinator) readPaymentRequest(ctx context.Context) *domain.PaymentRequest {
	raw, err := c.getSlot(ctx, repository.SlotPaymentRequest)
	if err != nil || raw == "" {
		return nil
	}
	var request domain.PaymentRequest
	if err := json.Unmarshal([]byte(raw), &request); err != nil {
		return nil
	}
	if request.Invoice == "" {
		return nil
	}
	return &request
}
