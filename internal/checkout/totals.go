package checkout

import (
	"github.com/shopspring/decimal"
)

// Policy is the pricing policy applied at composition time. Amounts are
// integer currency minor units.
type Policy struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

// Totals is the deterministic breakdown of one order total.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	Discount    int64 `json:"discount"`
	ShippingFee int64 `json:"shippingFee"`
	Total       int64 `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives the order total from the live subtotal, a sticky
// discount percentage, and the shipping policy. Computed once per
// submission; intermediate values are never reused across attempts.
//
// The total is clamped at zero: a discount larger than the subtotal
// (policy gap in the upstream coupon service) yields a free order, not a
// negative charge. The shipping fee is added before clamping so a
// below-threshold order still carries its fee when the discount exceeds
// the subtotal.
func ComputeTotals(subtotal int64, discountPercentage float64, policy Policy) Totals {
	discount := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(discountPercentage)).
		Div(oneHundred).
		Truncate(0).
		IntPart()
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	fee := shippingFee(subtotal, policy)

	total := subtotal - discount + fee
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: fee,
		Total:       total,
	}
}

// shippingFee is free at and above the threshold, flat below it.
func shippingFee(subtotal int64, policy Policy) int64 {
	if subtotal >= policy.FreeShippingThreshold {
		return 0
	}
	return policy.FlatShippingFee
}
