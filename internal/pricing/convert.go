// Package pricing converts fiat amounts into satoshis at a given rate.
package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// SatsPerBTC is the number of satoshis in one whole BTC.
const SatsPerBTC = 100_000_000

var satsPerBTC = decimal.NewFromInt(SatsPerBTC)

// ToSats converts a fiat amount to satoshis at the given fiat-per-BTC rate,
// rounding half up to the nearest satoshi. A missing, zero, or negative rate
// yields 0; callers must treat 0 as "unpriceable", not "free".
func ToSats(fiatAmount decimal.Decimal, rate *decimal.Decimal) int64 {
	if rate == nil || rate.Sign() <= 0 {
		return 0
	}
	sats := fiatAmount.Mul(satsPerBTC).DivRound(*rate, 0)
	return sats.IntPart()
}

// FormatSats renders a satoshi amount with thousands separators for display.
func FormatSats(sats int64) string {
	s := strconv.FormatInt(sats, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
