// Package money holds decimal helpers shared by the catalog and sales engine.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Hundred is the percentage base.
	Hundred = decimal.NewFromInt(100)
)

// StorageScale is the number of fractional digits persisted for money columns.
const StorageScale int32 = 4

// NonNegative returns d, or zero when d is negative.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// ClampPercent bounds p to [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	return Clamp(p, decimal.Zero, Hundred)
}

// ApplyPercentOff returns amount reduced by pct percent.
func ApplyPercentOff(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(Hundred.Sub(pct)).Div(Hundred)
}

// Percent returns part as a percentage of whole, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(Hundred).Div(whole)
}

// Parse reads a user supplied amount. Empty or malformed input reports ok=false.
func Parse(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
