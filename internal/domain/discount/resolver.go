package discount

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolve picks the discount applying to a product at the given instant.
// Returns nil when none applies.
//
// Create rejects overlapping active windows, so at most one rule should
// qualify. Legacy rows may still overlap; for those the rule with the most
// recent start date wins, ties broken by creation time, so resolution stays
// deterministic.
func Resolve(discounts []Discount, at time.Time) *Discount {
	var picked *Discount
	for i := range discounts {
		d := &discounts[i]
		if !d.ActiveAt(at) {
			continue
		}
		if picked == nil || laterRule(d, picked) {
			picked = d
		}
	}
	return picked
}

func laterRule(a, b *Discount) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// EffectiveUnitPrice returns the per-unit price after applying the rule to
// the base price, rounded to 2 decimal places and clamped at zero. A nil
// rule leaves the base price unchanged.
func EffectiveUnitPrice(base decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return base
	}

	var price decimal.Decimal
	switch {
	case d.Amount != nil:
		price = base.Sub(*d.Amount)
	case d.Percentage != nil:
		price = base.Mul(hundred.Sub(*d.Percentage)).Div(hundred)
	default:
		return base
	}

	if price.IsNegative() {
		return decimal.Zero
	}
	return price.Round(2)
}
