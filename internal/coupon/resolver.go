package coupon

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
)

type couponValidator interface {
	ValidateCoupon(ctx context.Context, code string) (*commerce.Coupon, error)
}

// Resolution captures a validated coupon. The percentage is sticky; the
// absolute discount is always recomputed from the subtotal in play at
// submission time.
type Resolution struct {
	CouponID           string  `json:"couponId"`
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// Resolver validates coupon codes against the coupon service.
type Resolver struct {
	coupons couponValidator
}

// NewResolver builds a coupon resolver over the commerce API.
func NewResolver(coupons couponValidator) (*Resolver, error) {
	if coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	return &Resolver{coupons: coupons}, nil
}

// Apply validates a code. Empty or whitespace codes are rejected locally
// without a network call. Re-applying the same code re-validates rather
// than trusting a previous resolution.
func (r *Resolver) Apply(ctx context.Context, code string) (*Resolution, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	coupon, err := r.coupons.ValidateCoupon(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if coupon.DiscountPercentage < 0 || coupon.DiscountPercentage > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeCouponRejected, "coupon discount out of range")
	}

	return &Resolution{
		CouponID:           coupon.CouponID,
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
	}, nil
}

// Revalidate re-checks a previously applied resolution at submission
// time; validity can expire between application and checkout.
func (r *Resolver) Revalidate(ctx context.Context, resolution *Resolution) (*Resolution, error) {
	if resolution == nil {
		return nil, nil
	}
	return r.Apply(ctx, resolution.Code)
}
