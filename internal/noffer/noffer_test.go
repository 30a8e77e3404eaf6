package noffer

import (
	"errors"
	"strings"
	"testing"
)

const testDestination = "4f355bdcb7cca0e2b5e0cc9b6a1f3c9ccf29e30a9f0ebd0cfcf0e9dfd3b6a14f"

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	in := Offer{
		Relay:       "wss://relay.example.com",
		Destination: testDestination,
		OfferID:     "coffee-counter",
	}

	encoded, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(encoded, Prefix+"1") {
		t.Fatalf("encoded string %q missing %s prefix", encoded, Prefix)
	}

	out, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Relay != in.Relay {
		t.Errorf("relay = %q, want %q", out.Relay, in.Relay)
	}
	if out.Destination != in.Destination {
		t.Errorf("destination = %q, want %q", out.Destination, in.Destination)
	}
	if out.OfferID != in.OfferID {
		t.Errorf("offer id = %q, want %q", out.OfferID, in.OfferID)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"",
		"not-bech32",
		"noffer1",
		"lnbc1qqqqqqqq", // wrong prefix
	} {
		if _, err := Decode(s); !errors.Is(err, ErrInvalidOffer) {
			t.Errorf("Decode(%q): expected ErrInvalidOffer, got %v", s, err)
		}
	}
}

func TestEncodeRejectsOversizedFields(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 256)

	if _, err := Encode(Offer{
		Relay:       "wss://" + long,
		Destination: testDestination,
		OfferID:     "x",
	}); err == nil {
		t.Error("expected error for relay longer than 255 bytes")
	}
	if _, err := Encode(Offer{
		Relay:       "wss://relay.example.com",
		Destination: testDestination,
		OfferID:     long,
	}); err == nil {
		t.Error("expected error for offer id longer than 255 bytes")
	}
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	t.Parallel()

	encoded, err := Encode(Offer{
		Relay:       "wss://relay.example.com",
		Destination: testDestination,
		OfferID:     "x",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Corrupt the checksum so the string no longer decodes.
	flip := "q"
	if strings.HasSuffix(encoded, "q") {
		flip = "p"
	}
	corrupted := encoded[:len(encoded)-1] + flip
	if _, err := Decode(corrupted); !errors.Is(err, ErrInvalidOffer) {
		t.Errorf("expected ErrInvalidOffer for corrupted string, got %v", err)
	}
}
