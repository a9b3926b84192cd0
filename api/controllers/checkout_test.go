package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/internal/checkout"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"github.com/mvaldez-dev/storefront-checkout/pkg/types"
)

type stubCheckoutService struct {
	confirmation *checkout.Confirmation
	totals       *checkout.Totals
	contact      *commerce.Contact
	err          error
	lastInput    checkout.Input
	lastSession  string
}

func (s *stubCheckoutService) Submit(ctx context.Context, sessionID string, input checkout.Input) (*checkout.Confirmation, error) {
	s.lastSession, s.lastInput = sessionID, input
	if s.err != nil {
		return nil, s.err
	}
	return s.confirmation, nil
}

func (s *stubCheckoutService) Quote(ctx context.Context, sessionID string) (*checkout.Totals, error) {
	s.lastSession = sessionID
	if s.err != nil {
		return nil, s.err
	}
	return s.totals, nil
}

func (s *stubCheckoutService) Contact(ctx context.Context) (*commerce.Contact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.contact, nil
}

const manualCheckoutBody = `{
	"addressMode": "manual",
	"address": {"addressLine": "12 Rose Lane", "city": "Dhaka", "postalCode": "1207"},
	"contact": {"fullName": "Amina Rahman", "email": "amina@example.com", "phone": "0171234567"},
	"paymentMethod": "card",
	"note": "leave at the gate"
}`

func TestCheckoutSubmitManual(t *testing.T) {
	svc := &stubCheckoutService{confirmation: &checkout.Confirmation{
		OrderID:       "order-77",
		TransactionID: "txn-1",
		Totals:        checkout.Totals{Subtotal: 500000, Discount: 50000, Total: 450000},
	}}

	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, &stubCartService{}, nil)(rec, sessionRequest(http.MethodPost, "/api/v1/checkout", manualCheckoutBody))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "session-1", svc.lastSession)
	assert.Equal(t, "manual", string(svc.lastInput.Address.Mode))
	assert.Equal(t, "card", svc.lastInput.PaymentMethod)
	assert.Equal(t, "12 Rose Lane", svc.lastInput.Address.Fields.AddressLine)
	assert.Equal(t, "Amina Rahman", svc.lastInput.Address.Contact.FullName)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "order-77", data["orderId"])
}

func TestCheckoutSubmitSelectedUsesStoredSelection(t *testing.T) {
	svc := &stubCheckoutService{confirmation: &checkout.Confirmation{OrderID: "order-1"}}
	cartSvc := &stubCartService{selected: &cartstore.SelectedAddress{AddressID: "addr-9"}}

	body := `{
		"addressMode": "selected",
		"contact": {"fullName": "Amina Rahman", "email": "amina@example.com", "phone": "0171234567"},
		"paymentMethod": "cash-on-delivery"
	}`
	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, cartSvc, nil)(rec, sessionRequest(http.MethodPost, "/api/v1/checkout", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "addr-9", svc.lastInput.Address.AddressID)
}

func TestCheckoutSubmitSelectedWithoutSelection(t *testing.T) {
	svc := &stubCheckoutService{}
	cartSvc := &stubCartService{}

	body := `{
		"addressMode": "selected",
		"contact": {"fullName": "Amina Rahman", "email": "amina@example.com", "phone": "0171234567"},
		"paymentMethod": "card"
	}`
	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, cartSvc, nil)(rec, sessionRequest(http.MethodPost, "/api/v1/checkout", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Empty(t, svc.lastSession)
}

func TestCheckoutSubmitUnknownMode(t *testing.T) {
	svc := &stubCheckoutService{}

	body := `{"addressMode": "psychic", "paymentMethod": "card"}`
	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, &stubCartService{}, nil)(rec, sessionRequest(http.MethodPost, "/api/v1/checkout", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutSubmitStockShortfall(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStockShortfall, "insufficient stock").
		WithDetails(map[string]any{"shortfalls": []map[string]any{
			{"productId": "prod-1", "requested": 5, "available": 3},
		}})}

	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, &stubCartService{}, nil)(rec, sessionRequest(http.MethodPost, "/api/v1/checkout", manualCheckoutBody))

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "STOCK_SHORTFALL", envelope.Error.Code)
	assert.NotNil(t, envelope.Error.Details)
}

func TestCheckoutSubmitDependencyFailureIsRetryable(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeDependency, "stock check unavailable")}

	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, &stubCartService{}, nil)(rec, sessionRequest(http.MethodPost, "/api/v1/checkout", manualCheckoutBody))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "DEPENDENCY_ERROR", envelope.Error.Code)
}

func TestCheckoutQuote(t *testing.T) {
	svc := &stubCheckoutService{totals: &checkout.Totals{
		Subtotal:    500000,
		Discount:    50000,
		ShippingFee: 0,
		Total:       450000,
	}}

	rec := httptest.NewRecorder()
	CheckoutQuote(svc, nil)(rec, sessionRequest(http.MethodGet, "/api/v1/checkout/quote", ""))

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(450000), data["total"])
}

func TestCheckoutContactPrefill(t *testing.T) {
	svc := &stubCheckoutService{contact: &commerce.Contact{
		FullName: "Amina Rahman",
		Email:    "amina@example.com",
		Phone:    "0171234567",
	}}

	rec := httptest.NewRecorder()
	CheckoutContact(svc, nil)(rec, sessionRequest(http.MethodGet, "/api/v1/checkout/contact", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
}
