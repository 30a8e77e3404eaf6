package tests

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
	"cafepos/internal/noffer"
	"cafepos/internal/service"
)

const testDestination = "97dde2dffb0b79a26bcfea22ab3d45ec47561f551bb9ffee3bdcedaf1f0a1f0b"

// testOffer returns a valid encoded merchant offer string.
func testOffer(t *testing.T) string {
	t.Helper()
	encoded, err := noffer.Encode(noffer.Offer{
		Relay:       "wss://relay.example.com",
		Destination: testDestination,
		OfferID:     "counter-1",
	})
	if err != nil {
		t.Fatalf("failed to encode test offer: %v", err)
	}
	return encoded
}

// mustDecimal parses a decimal or fails the test.
func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// rateAt builds an exchange rate observation.
func rateAt(t *testing.T, value string) *domain.ExchangeRate {
	t.Helper()
	return &domain.ExchangeRate{Value: mustDecimal(t, value), ObservedAt: time.Now()}
}

// checkoutFixture bundles a coordinator with its collaborators.
type checkoutFixture struct {
	slots       *MockSlotStore
	rates       *MockRates
	resolver    *MockResolver
	ledger      *service.CartLedger
	coordinator *service.CheckoutCoordinator
	clientKey   []byte
	offer       string
}

// newCheckoutFixture builds a coordinator over fresh mocks with a short
// request timeout. The client key is loaded through the real path so it
// is persisted in the slot store like in production.
func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	slots := NewMockSlotStore()
	rates := NewMockRates()
	resolver := NewMockResolver()
	ledger := service.NewCartLedger(slots)
	clientKey, err := service.LoadClientKey(context.Background(), slots)
	if err != nil {
		t.Fatalf("failed to load client key: %v", err)
	}
	coordinator := service.NewCheckoutCoordinator(ledger, rates, slots, resolver, clientKey, 200*time.Millisecond)
	return &checkoutFixture{
		slots:       slots,
		rates:       rates,
		resolver:    resolver,
		ledger:      ledger,
		coordinator: coordinator,
		clientKey:   clientKey,
		offer:       testOffer(t),
	}
}

// menuItem builds a catalog item with the given fiat price.
func menuItem(t *testing.T, id, price string) domain.MenuItem {
	t.Helper()
	return domain.MenuItem{ID: id, Name: id, Price: mustDecimal(t, price)}
}

// waitForState polls the coordinator until it reaches the wanted state.
func waitForState(t *testing.T, c *service.CheckoutCoordinator, want domain.CheckoutState) domain.CheckoutSession {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := c.Session()
		if s.State == want {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current %s)", want, c.Session().State)
	return domain.CheckoutSession{}
}
