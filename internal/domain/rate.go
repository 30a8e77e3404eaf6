package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one observation of the fiat price of a whole BTC.
// Absent until the feed's first successful fetch.
type ExchangeRate struct {
	Value      decimal.Decimal `json:"value"`
	ObservedAt time.Time       `json:"observed_at"`
}
