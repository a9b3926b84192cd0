package controllers

import (
	"net/http"

	"github.com/mvaldez-dev/storefront-checkout/api/middleware"
	"github.com/mvaldez-dev/storefront-checkout/api/responses"
	"github.com/mvaldez-dev/storefront-checkout/api/validators"
	"github.com/mvaldez-dev/storefront-checkout/internal/cart"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
)

type applyCouponPayload struct {
	Code string `json:"code" validate:"required"`
}

// CouponApply validates a code against the coupon service and attaches
// it to the session cart.
func CouponApply(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload applyCouponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.ApplyCoupon(ctx, middleware.SessionIDFromContext(ctx), payload.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CouponRemove detaches the applied coupon, if any.
func CouponRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		view, err := svc.RemoveCoupon(ctx, middleware.SessionIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
