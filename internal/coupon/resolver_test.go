package coupon

import (
	"context"
	"testing"

	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
)

type stubCoupons struct {
	coupon *commerce.Coupon
	err    error
	calls  int
}

func (s *stubCoupons) ValidateCoupon(ctx context.Context, code string) (*commerce.Coupon, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.coupon, nil
}

func TestApplyResolvesCoupon(t *testing.T) {
	t.Parallel()

	coupons := &stubCoupons{coupon: &commerce.Coupon{CouponID: "c-1", Code: "SAVE10", DiscountPercentage: 10}}
	resolver, err := NewResolver(coupons)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	resolution, err := resolver.Apply(context.Background(), " SAVE10 ")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if resolution.CouponID != "c-1" || resolution.DiscountPercentage != 10 {
		t.Errorf("resolution = %+v", resolution)
	}
}

func TestApplyEmptyCodeSkipsNetwork(t *testing.T) {
	t.Parallel()

	coupons := &stubCoupons{}
	resolver, _ := NewResolver(coupons)

	for _, code := range []string{"", "   ", "\t"} {
		if _, err := resolver.Apply(context.Background(), code); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Errorf("Apply(%q) code = %v", code, pkgerrors.CodeOf(err))
		}
	}
	if coupons.calls != 0 {
		t.Fatalf("network calls = %d, want 0", coupons.calls)
	}
}

func TestApplyPropagatesRejection(t *testing.T) {
	t.Parallel()

	coupons := &stubCoupons{err: pkgerrors.New(pkgerrors.CodeCouponRejected, "coupon invalid or expired")}
	resolver, _ := NewResolver(coupons)

	if _, err := resolver.Apply(context.Background(), "EXPIRED"); pkgerrors.CodeOf(err) != pkgerrors.CodeCouponRejected {
		t.Fatalf("code = %v", pkgerrors.CodeOf(err))
	}
}

func TestApplyRejectsOutOfRangeDiscount(t *testing.T) {
	t.Parallel()

	coupons := &stubCoupons{coupon: &commerce.Coupon{CouponID: "c-2", Code: "BAD", DiscountPercentage: 150}}
	resolver, _ := NewResolver(coupons)

	if _, err := resolver.Apply(context.Background(), "BAD"); pkgerrors.CodeOf(err) != pkgerrors.CodeCouponRejected {
		t.Fatalf("code = %v", pkgerrors.CodeOf(err))
	}
}

func TestRevalidateHitsServiceAgain(t *testing.T) {
	t.Parallel()

	coupons := &stubCoupons{coupon: &commerce.Coupon{CouponID: "c-1", Code: "SAVE10", DiscountPercentage: 10}}
	resolver, _ := NewResolver(coupons)

	resolution, err := resolver.Apply(context.Background(), "SAVE10")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := resolver.Revalidate(context.Background(), resolution); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	if coupons.calls != 2 {
		t.Fatalf("calls = %d, want a fresh validation per application", coupons.calls)
	}

	if res, err := resolver.Revalidate(context.Background(), nil); res != nil || err != nil {
		t.Fatal("nil resolution revalidates to nil")
	}
}
