// Package cart exposes the session cart operations behind the
// storefront API: line edits, coupon application, and address
// selection. All state lives in the session store; product pricing is
// snapshotted from the catalog at add time and revalidated at checkout.
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/internal/coupon"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
)

type catalog interface {
	GetProduct(ctx context.Context, productID string) (*commerce.Product, error)
	ListAddresses(ctx context.Context) ([]commerce.AddressRecord, error)
}

type couponApplier interface {
	Apply(ctx context.Context, code string) (*coupon.Resolution, error)
}

// View is the cart state returned to the storefront, coupon included.
type View struct {
	Lines    []cartstore.Line         `json:"lines"`
	Coupon   *cartstore.AppliedCoupon `json:"coupon,omitempty"`
	Subtotal int64                    `json:"subtotal"`
}

// Service owns the session cart lifecycle up to checkout.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int) (*View, error)
	UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*View, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*View, error)
	Clear(ctx context.Context, sessionID string) error

	ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*View, error)

	SelectAddress(ctx context.Context, sessionID, addressID string) (*cartstore.SelectedAddress, error)
	SelectedAddress(ctx context.Context, sessionID string) (*cartstore.SelectedAddress, error)
	ClearSelectedAddress(ctx context.Context, sessionID string) error
}

type service struct {
	store   cartstore.Store
	catalog catalog
	coupons couponApplier
}

// NewService builds the cart service over the session store and the
// commerce catalog.
func NewService(store cartstore.Store, cat catalog, coupons couponApplier) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon applier required")
	}
	return &service{store: store, catalog: cat, coupons: coupons}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return viewOf(cart), nil
}

// AddItem snapshots the live catalog price rather than trusting a
// client-supplied amount. Re-adding a product merges quantities.
func (s *service) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*View, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(cart *cartstore.Cart) error {
		return cart.AddLine(cartstore.Line{
			ProductID: product.ID,
			UnitPrice: product.Price,
			Quantity:  quantity,
		})
	})
}

func (s *service) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*View, error) {
	return s.mutate(ctx, sessionID, func(cart *cartstore.Cart) error {
		return cart.SetQuantity(productID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, productID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(cart *cartstore.Cart) error {
		return cart.RemoveLine(productID)
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}

// ApplyCoupon validates the code remotely and attaches the sticky
// percentage to the cart. An empty cart cannot carry a coupon.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot apply a coupon to an empty cart")
	}

	resolution, err := s.coupons.Apply(ctx, code)
	if err != nil {
		return nil, err
	}

	cart.Coupon = &cartstore.AppliedCoupon{
		CouponID:           resolution.CouponID,
		Code:               resolution.Code,
		DiscountPercentage: resolution.DiscountPercentage,
	}
	if err := s.store.Set(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return viewOf(cart), nil
}

func (s *service) RemoveCoupon(ctx context.Context, sessionID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(cart *cartstore.Cart) error {
		cart.Coupon = nil
		return nil
	})
}

// SelectAddress stores a verbatim copy of the chosen address-book
// record. Checkout later re-verifies the copy against the live record.
func (s *service) SelectAddress(ctx context.Context, sessionID, addressID string) (*cartstore.SelectedAddress, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	records, err := s.catalog.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.AddressID != addressID {
			continue
		}
		selected := &cartstore.SelectedAddress{
			AddressID:  record.AddressID,
			Address:    record.Address,
			City:       record.City,
			PostalCode: record.PostalCode,
		}
		if err := s.store.SetSelectedAddress(ctx, sessionID, selected); err != nil {
			return nil, err
		}
		return selected, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found in address book")
}

func (s *service) SelectedAddress(ctx context.Context, sessionID string) (*cartstore.SelectedAddress, error) {
	return s.store.GetSelectedAddress(ctx, sessionID)
}

func (s *service) ClearSelectedAddress(ctx context.Context, sessionID string) error {
	return s.store.ClearSelectedAddress(ctx, sessionID)
}

func (s *service) mutate(ctx context.Context, sessionID string, apply func(*cartstore.Cart) error) (*View, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := apply(cart); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return viewOf(cart), nil
}

func viewOf(cart *cartstore.Cart) *View {
	view := &View{
		Lines:    cart.Lines,
		Coupon:   cart.Coupon,
		Subtotal: cart.Subtotal(),
	}
	if view.Lines == nil {
		view.Lines = []cartstore.Line{}
	}
	return view
}
