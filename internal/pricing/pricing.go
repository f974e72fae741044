// Package pricing derives discount and total amounts from a cart's current
// contents. All amounts are int64 rupiah and every function is pure, so a
// quote can be recomputed on every read without side effects.
package pricing

import "github.com/yogitridirgantara/POS-DR/internal/domain"

// Discount rates in basis points, so no monetary computation touches
// floating point.
const bpsDenominator = 10_000

// Snapshot is a derived view of a cart's pricing. It is never stored; callers
// recompute it from the cart whenever they need current numbers.
type Snapshot struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountBps    int64 `json:"discount_bps"`
	DiscountAmount int64 `json:"discount"`
	FinalTotal     int64 `json:"total"`
}

func Subtotal(cart *domain.Cart) int64 {
	var sum int64
	for _, line := range cart.Lines {
		sum += line.UnitPrice * int64(line.Quantity)
	}
	return sum
}

// DiscountRateBps selects the discount tier for a subtotal. The thresholds
// are strict: a subtotal of exactly 500_000 earns the 5% tier, not 10%.
// This is a currency-affecting contract, do not relax the comparisons.
func DiscountRateBps(subtotal int64) int64 {
	switch {
	case subtotal > 1_000_000:
		return 2_500
	case subtotal > 700_000:
		return 1_500
	case subtotal > 500_000:
		return 1_000
	case subtotal > 300_000:
		return 500
	default:
		return 0
	}
}

// DiscountAmount applies the tier rate to the subtotal once, rounding half up
// to the nearest rupiah. Rounding happens here and nowhere else.
func DiscountAmount(subtotal int64) int64 {
	bps := DiscountRateBps(subtotal)
	return (subtotal*bps + bpsDenominator/2) / bpsDenominator
}

// Quote computes the full pricing snapshot for a cart. FinalTotal is always
// within [0, Subtotal].
func Quote(cart *domain.Cart) Snapshot {
	subtotal := Subtotal(cart)
	discount := DiscountAmount(subtotal)
	return Snapshot{
		Subtotal:       subtotal,
		DiscountBps:    DiscountRateBps(subtotal),
		DiscountAmount: discount,
		FinalTotal:     subtotal - discount,
	}
}
