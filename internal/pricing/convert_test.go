package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestToSats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fiat string
		rate string
		want int64
	}{
		{"ten dollars at 100k", "10.00", "100000", 10000},
		{"one dollar at 100k", "1.00", "100000", 1000},
		{"zero amount", "0", "100000", 0},
		{"sub-sat rounds half up", "0.000625", "100000", 1},
		{"rounds down below half", "0.0004", "100000", 0},
		{"high rate", "5.00", "250000", 2000},
		{"whole btc", "100000", "100000", SatsPerBTC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := dec(tt.rate)
			got := ToSats(dec(tt.fiat), &rate)
			if got != tt.want {
				t.Errorf("ToSats(%s, %s) = %d, want %d", tt.fiat, tt.rate, got, tt.want)
			}
		})
	}
}

func TestToSatsDegenerateRate(t *testing.T) {
	t.Parallel()

	amounts := []string{"0", "0.01", "10.00", "99999.99"}
	zero := dec("0")
	negative := dec("-100000")

	for _, a := range amounts {
		if got := ToSats(dec(a), nil); got != 0 {
			t.Errorf("ToSats(%s, nil) = %d, want 0", a, got)
		}
		if got := ToSats(dec(a), &zero); got != 0 {
			t.Errorf("ToSats(%s, 0) = %d, want 0", a, got)
		}
		if got := ToSats(dec(a), &negative); got != 0 {
			t.Errorf("ToSats(%s, -100000) = %d, want 0", a, got)
		}
	}
}

func TestToSatsMonotonic(t *testing.T) {
	t.Parallel()

	rate := dec("87345.12")
	prev := int64(-1)
	for _, a := range []string{"0", "0.01", "0.50", "1.00", "4.99", "5.00", "20.00", "100.00"} {
		got := ToSats(dec(a), &rate)
		if got < prev {
			t.Fatalf("ToSats not monotonic: %s -> %d after %d", a, got, prev)
		}
		prev = got
	}
}

func TestToSatsDeterministic(t *testing.T) {
	t.Parallel()

	rate := dec("63211.77")
	first := ToSats(dec("12.34"), &rate)
	for i := 0; i < 100; i++ {
		if got := ToSats(dec("12.34"), &rate); got != first {
			t.Fatalf("ToSats not deterministic: got %d then %d", first, got)
		}
	}
}

func TestFormatSats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{10000, "10,000"},
		{100000000, "100,000,000"},
		{-12345, "-12,345"},
	}

	for _, tt := range tests {
		if got := FormatSats(tt.in); got != tt.want {
			t.Errorf("FormatSats(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
