package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaldez-dev/storefront-checkout/internal/cart"
	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/internal/checkout"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	"github.com/mvaldez-dev/storefront-checkout/pkg/config"
	"github.com/mvaldez-dev/storefront-checkout/pkg/redis"
)

type stubCommerceAPI struct{}

func (stubCommerceAPI) GetProduct(ctx context.Context, id string) (*commerce.Product, error) {
	return &commerce.Product{ID: id, Quantity: 10, Price: 1000}, nil
}

func (stubCommerceAPI) ValidateCoupon(ctx context.Context, code string) (*commerce.Coupon, error) {
	return &commerce.Coupon{CouponID: "coupon-1", Code: code, DiscountPercentage: 10}, nil
}

func (stubCommerceAPI) ListAddresses(ctx context.Context) ([]commerce.AddressRecord, error) {
	return nil, nil
}

func (stubCommerceAPI) Me(ctx context.Context) (*commerce.Contact, error) {
	return &commerce.Contact{FullName: "Test User"}, nil
}

func (stubCommerceAPI) CreateOrder(ctx context.Context, req commerce.OrderRequest) (*commerce.OrderConfirmation, error) {
	return &commerce.OrderConfirmation{OrderID: "order-1"}, nil
}

type routerCartStub struct{}

func (routerCartStub) Get(ctx context.Context, sessionID string) (*cart.View, error) {
	return &cart.View{Lines: []cartstore.Line{}}, nil
}

func (routerCartStub) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*cart.View, error) {
	return &cart.View{}, nil
}

func (routerCartStub) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*cart.View, error) {
	return &cart.View{}, nil
}

func (routerCartStub) RemoveItem(ctx context.Context, sessionID, productID string) (*cart.View, error) {
	return &cart.View{}, nil
}

func (routerCartStub) Clear(ctx context.Context, sessionID string) error { return nil }

func (routerCartStub) ApplyCoupon(ctx context.Context, sessionID, code string) (*cart.View, error) {
	return &cart.View{}, nil
}

func (routerCartStub) RemoveCoupon(ctx context.Context, sessionID string) (*cart.View, error) {
	return &cart.View{}, nil
}

func (routerCartStub) SelectAddress(ctx context.Context, sessionID, addressID string) (*cartstore.SelectedAddress, error) {
	return nil, nil
}

func (routerCartStub) SelectedAddress(ctx context.Context, sessionID string) (*cartstore.SelectedAddress, error) {
	return nil, nil
}

func (routerCartStub) ClearSelectedAddress(ctx context.Context, sessionID string) error { return nil }

type routerCheckoutStub struct{}

func (routerCheckoutStub) Submit(ctx context.Context, sessionID string, input checkout.Input) (*checkout.Confirmation, error) {
	return &checkout.Confirmation{OrderID: "order-1"}, nil
}

func (routerCheckoutStub) Quote(ctx context.Context, sessionID string) (*checkout.Totals, error) {
	return &checkout.Totals{}, nil
}

func (routerCheckoutStub) Contact(ctx context.Context) (*commerce.Contact, error) {
	return &commerce.Contact{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	return NewRouter(
		cfg,
		nil,
		&redis.Client{},
		stubCommerceAPI{},
		routerCartStub{},
		routerCheckoutStub{},
		prometheus.NewRegistry(),
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-Storefront-Env"))
}

func TestHealthReadyReportsStoreOutage(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	// The zero-value client has no live connection.
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRequiresBearerToken(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartMintsSessionID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer token-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Session-Id"))
}

func TestCheckoutQuoteRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/quote", nil)
	req.Header.Set("Authorization", "Bearer token-123")
	req.Header.Set("X-Session-Id", "session-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
