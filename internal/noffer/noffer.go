// Package noffer decodes bech32-encoded merchant offer strings.
//
// An offer string carries a TLV payload identifying the relay to contact,
// the merchant's destination key, and the offer identifier to resolve.
package noffer

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Prefix is the human-readable part expected on offer strings.
const Prefix = "noffer"

// TLV types inside the decoded payload.
const (
	tlvDestination = 0 // 32-byte destination public key
	tlvRelay       = 1 // relay URL, UTF-8
	tlvOffer       = 2 // offer identifier, UTF-8
)

// ErrInvalidOffer is returned when the offer string is not a decodable
// noffer token.
var ErrInvalidOffer = errors.New("invalid offer string")

// Offer is a decoded merchant offer.
type Offer struct {
	Relay       string
	Destination string // hex-encoded public key
	OfferID     string
}

// Decode parses a bech32 offer string into its relay, destination key,
// and offer identifier.
func Decode(offerString string) (*Offer, error) {
	hrp, data, err := bech32.DecodeNoLimit(offerString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}
	if hrp != Prefix {
		return nil, fmt.Errorf("%w: unexpected prefix %q", ErrInvalidOffer, hrp)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}

	var offer Offer
	for len(payload) >= 2 {
		typ := payload[0]
		length := int(payload[1])
		payload = payload[2:]
		if length > len(payload) {
			return nil, fmt.Errorf("%w: truncated TLV record", ErrInvalidOffer)
		}
		value := payload[:length]
		payload = payload[length:]

		switch typ {
		case tlvDestination:
			if length != 32 {
				return nil, fmt.Errorf("%w: destination key must be 32 bytes", ErrInvalidOffer)
			}
			offer.Destination = hex.EncodeToString(value)
		case tlvRelay:
			offer.Relay = string(value)
		case tlvOffer:
			offer.OfferID = string(value)
		default:
			// Unknown TLV types are skipped for forward compatibility.
		}
	}

	if offer.Destination == "" || offer.Relay == "" || offer.OfferID == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidOffer)
	}

	return &offer, nil
}

// Encode builds an offer string from its parts. Used by tests and tooling.
func Encode(offer Offer) (string, error) {
	dest, err := hex.DecodeString(offer.Destination)
	if err != nil || len(dest) != 32 {
		return "", fmt.Errorf("destination must be a 32-byte hex key")
	}
	// TLV lengths are a single byte.
	if len(offer.Relay) > 255 {
		return "", fmt.Errorf("relay URL exceeds 255 bytes")
	}
	if len(offer.OfferID) > 255 {
		return "", fmt.Errorf("offer id exceeds 255 bytes")
	}

	var payload []byte
	payload = append(payload, tlvDestination, byte(len(dest)))
	payload = append(payload, dest...)
	payload = append(payload, tlvRelay, byte(len(offer.Relay)))
	payload = append(payload, offer.Relay...)
	payload = append(payload, tlvOffer, byte(len(offer.OfferID)))
	payload = append(payload, offer.OfferID...)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(Prefix, converted)
}
