package controllers

import (
	"net/http"

	"github.com/mvaldez-dev/storefront-checkout/api/middleware"
	"github.com/mvaldez-dev/storefront-checkout/api/responses"
	"github.com/mvaldez-dev/storefront-checkout/api/validators"
	"github.com/mvaldez-dev/storefront-checkout/internal/address"
	"github.com/mvaldez-dev/storefront-checkout/internal/cart"
	"github.com/mvaldez-dev/storefront-checkout/internal/checkout"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
)

type checkoutAddressPayload struct {
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
}

type checkoutContactPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type checkoutPayload struct {
	AddressMode   string                 `json:"addressMode" validate:"required,oneof=selected manual"`
	AddressID     string                 `json:"addressId"`
	Address       checkoutAddressPayload `json:"address"`
	Contact       checkoutContactPayload `json:"contact"`
	PaymentMethod string                 `json:"paymentMethod" validate:"required"`
	Note          string                 `json:"note" validate:"max=500"`
}

// CheckoutSubmit runs the full composition pipeline for the session.
// In selected mode the stored session selection supplies the address id
// when the payload omits one; the mirrored form fields, when present,
// are diffed against the stored record downstream.
func CheckoutSubmit(svc checkout.Service, cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := checkout.Input{
			PaymentMethod: payload.PaymentMethod,
			Note:          payload.Note,
			Address: address.Input{
				Mode:      address.Mode(payload.AddressMode),
				AddressID: payload.AddressID,
				Fields: address.Fields{
					AddressLine: payload.Address.AddressLine,
					City:        payload.Address.City,
					PostalCode:  payload.Address.PostalCode,
				},
				Contact: address.Contact{
					FullName: payload.Contact.FullName,
					Email:    payload.Contact.Email,
					Phone:    payload.Contact.Phone,
				},
			},
		}

		if input.Address.Mode == address.ModeSelected && input.Address.AddressID == "" {
			selected, err := cartSvc.SelectedAddress(ctx, sessionID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if selected == nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "no address selected for this session"))
				return
			}
			input.Address.AddressID = selected.AddressID
		}

		confirmation, err := svc.Submit(ctx, sessionID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}

// CheckoutQuote returns the totals breakdown for the current cart
// without touching remote services.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		totals, err := svc.Quote(ctx, middleware.SessionIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

// CheckoutContact returns the authenticated user's contact prefill.
func CheckoutContact(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		contact, err := svc.Contact(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, contact)
	}
}
