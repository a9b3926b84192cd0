package controllers

import (
	"context"
	"net/http"

	"github.com/mvaldez-dev/storefront-checkout/api/middleware"
	"github.com/mvaldez-dev/storefront-checkout/api/responses"
	"github.com/mvaldez-dev/storefront-checkout/api/validators"
	"github.com/mvaldez-dev/storefront-checkout/internal/cart"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
)

type addressBook interface {
	ListAddresses(ctx context.Context) ([]commerce.AddressRecord, error)
}

type selectAddressPayload struct {
	AddressID string `json:"addressId" validate:"required"`
}

// AddressList proxies the caller's address book from the commerce API.
func AddressList(book addressBook, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		records, err := book.ListAddresses(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if records == nil {
			records = []commerce.AddressRecord{}
		}
		responses.WriteSuccess(w, records)
	}
}

// AddressSelect stores a verbatim copy of one address-book record as the
// session's shipping selection.
func AddressSelect(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload selectAddressPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		selected, err := svc.SelectAddress(ctx, middleware.SessionIDFromContext(ctx), payload.AddressID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, selected)
	}
}

// AddressSelection returns the current selection, or null when none.
func AddressSelection(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		selected, err := svc.SelectedAddress(ctx, middleware.SessionIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, selected)
	}
}

// AddressSelectionClear drops the session's shipping selection.
func AddressSelectionClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := svc.ClearSelectedAddress(ctx, middleware.SessionIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
