package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvaldez-dev/storefront-checkout/pkg/config"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout             = 10 * time.Second
	errorBodyReadLimit   int64 = 4096
	defaultRetryAttempts       = 3
	defaultRetryBase           = 250 * time.Millisecond
)

// Client wraps the upstream commerce API that owns products, coupons,
// the address book, auth, and order creation.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	retryAttempts uint64
	retryBase     time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the GET retry policy.
func WithRetry(attempts uint64, base time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		if base > 0 {
			c.retryBase = base
		}
	}
}

// NewClient builds the commerce client for the given base URL.
func NewClient(cfg config.CommerceConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("commerce base url is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: timeout},
		retryAttempts: cfg.RetryAttempts,
		retryBase:     cfg.RetryBase,
	}
	if client.retryAttempts == 0 {
		client.retryAttempts = defaultRetryAttempts
	}
	if client.retryBase <= 0 {
		client.retryBase = defaultRetryBase
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Product is the per-product availability record used for stock checks.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Coupon is the authoritative coupon record.
type Coupon struct {
	CouponID           string  `json:"couponId"`
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// AddressRecord is one stored address-book entry.
type AddressRecord struct {
	AddressID  string    `json:"addressId"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postalCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Contact is the authenticated user's prefill contact data.
type Contact struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// OrderLine is one submitted order detail row.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// OrderRequest is the terminal payload submitted to create an order.
type OrderRequest struct {
	UserID        string      `json:"userId,omitempty"`
	TotalPrice    int64       `json:"totalPrice"`
	CouponID      *string     `json:"couponId"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod"`
	PaymentStatus string      `json:"paymentStatus"`
	TransactionID string      `json:"transactionId,omitempty"`
	FullName      string      `json:"fullName"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	Note          string      `json:"note,omitempty"`
	OrderDetails  []OrderLine `json:"orderDetails"`
}

// OrderConfirmation is returned by the order service on success.
type OrderConfirmation struct {
	OrderID string `json:"orderId"`
}

// API is the surface consumed by the checkout pipeline. Satisfied by
// *Client; tests substitute stubs.
type API interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ValidateCoupon(ctx context.Context, code string) (*Coupon, error)
	ListAddresses(ctx context.Context) ([]AddressRecord, error)
	Me(ctx context.Context) (*Contact, error)
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error)
}

var _ API = (*Client)(nil)

// GetProduct fetches the current availability for one product.
// Retried on transient failure; never retried on auth or not-found.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	err := c.getWithRetry(ctx, "/products/"+url.PathEscape(id), nil, &product)
	if err != nil {
		return nil, err
	}
	if product.ID == "" {
		product.ID = id
	}
	return &product, nil
}

// ValidateCoupon resolves a coupon code against the coupon service.
func (c *Client) ValidateCoupon(ctx context.Context, code string) (*Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	query := url.Values{"code": []string{trimmed}}
	var coupon Coupon
	if err := c.getWithRetry(ctx, "/coupons/validate", query, &coupon); err != nil {
		// The coupon service reports invalid or expired codes as client
		// errors; everything else keeps its transport classification.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCouponRejected, err, "coupon invalid or expired")
		}
		return nil, err
	}
	if coupon.Code == "" {
		coupon.Code = trimmed
	}
	return &coupon, nil
}

// ListAddresses returns the caller's stored address book.
func (c *Client) ListAddresses(ctx context.Context) ([]AddressRecord, error) {
	var records []AddressRecord
	if err := c.getWithRetry(ctx, "/address", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Me returns the authenticated user's contact prefill.
func (c *Client) Me(ctx context.Context) (*Contact, error) {
	var contact Contact
	if err := c.getWithRetry(ctx, "/auth/me", nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateOrder submits the composed order exactly once. Never retried:
// a duplicate POST here could double-submit an order.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order request")
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/checkout", nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit order")
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var confirmation OrderConfirmation
		if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order confirmation")
		}
		return &confirmation, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, pkgerrors.New(pkgerrors.CodeAuthExpired, "authentication expired")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The order service re-validates stock and coupon state at commit
		// time and may reject even after the local pre-checks passed.
		return nil, pkgerrors.New(pkgerrors.CodeOrderRejected, "order rejected by server").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": readErrorBody(resp.Body)})
	default:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("order service returned %d", resp.StatusCode))
	}
}

func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values, dest any) error {
	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewFibonacci(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.get(ctx, path, query, dest)
		if err != nil && pkgerrors.CodeOf(err) == pkgerrors.CodeDependency {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call commerce api")
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		if dest == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce response")
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeAuthExpired, "authentication expired")
	case resp.StatusCode == http.StatusNotFound || (resp.StatusCode >= 400 && resp.StatusCode < 500):
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("commerce api returned %d for %s", resp.StatusCode, path)).
			WithDetails(map[string]any{"body": readErrorBody(resp.Body)})
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("commerce api returned %d for %s", resp.StatusCode, path))
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce request")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, errorBodyReadLimit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
