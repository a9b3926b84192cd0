package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldez-dev/storefront-checkout/internal/address"
	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/internal/coupon"
	"github.com/mvaldez-dev/storefront-checkout/internal/stock"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
	"github.com/mvaldez-dev/storefront-checkout/pkg/metrics"
)

// PaymentMethodCOD is the one payment method that carries no transaction
// marker on submission.
const PaymentMethodCOD = "cash-on-delivery"

type stockReconciler interface {
	Reconcile(ctx context.Context, lines []cartstore.Line) (*stock.Result, error)
}

type addressResolver interface {
	Resolve(ctx context.Context, input address.Input) (*address.Resolution, error)
}

type couponRevalidator interface {
	Revalidate(ctx context.Context, resolution *coupon.Resolution) (*coupon.Resolution, error)
}

type orderSubmitter interface {
	CreateOrder(ctx context.Context, req commerce.OrderRequest) (*commerce.OrderConfirmation, error)
	Me(ctx context.Context) (*commerce.Contact, error)
}

// Input carries everything a single user-initiated checkout click
// provides beyond the stored session state.
type Input struct {
	Address       address.Input
	PaymentMethod string
	Note          string
}

// Confirmation is the outcome of a confirmed order.
type Confirmation struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId,omitempty"`
	Totals        Totals `json:"totals"`
}

// Service composes the session cart, coupon, and address state into one
// atomic order submission.
type Service interface {
	// Submit runs the full validation pipeline and submits the order at
	// most once per call. On confirmed success the session cart, coupon,
	// and address selection are cleared; on any failure they survive.
	Submit(ctx context.Context, sessionID string, input Input) (*Confirmation, error)

	// Quote computes display totals for the current session cart without
	// touching remote state.
	Quote(ctx context.Context, sessionID string) (*Totals, error)

	// Contact returns the authenticated user's contact prefill.
	Contact(ctx context.Context) (*commerce.Contact, error)
}

type service struct {
	store      cartstore.Store
	reconciler stockReconciler
	addresses  addressResolver
	coupons    couponRevalidator
	orders     orderSubmitter
	locker     AttemptLocker
	policy     Policy
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the order composer.
func NewService(
	store cartstore.Store,
	reconciler stockReconciler,
	addresses addressResolver,
	coupons couponRevalidator,
	orders orderSubmitter,
	locker AttemptLocker,
	policy Policy,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("stock reconciler required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &service{
		store:      store,
		reconciler: reconciler,
		addresses:  addresses,
		coupons:    coupons,
		orders:     orders,
		locker:     locker,
		policy:     policy,
		logg:       logg,
		metrics:    checkoutMetrics,
	}, nil
}

func (s *service) Submit(ctx context.Context, sessionID string, input Input) (*Confirmation, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	acquired, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	defer s.locker.Release(context.WithoutCancel(ctx), sessionID)

	attemptID := uuid.NewString()
	if s.logg != nil {
		ctx = s.logg.WithAttemptID(s.logg.WithSessionID(ctx, sessionID), attemptID)
	}

	started := time.Now()
	confirmation, err := s.run(ctx, sessionID, input)
	outcome := "confirmed"
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	s.metrics.Observe(outcome, time.Since(started))
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "state", string(StateRejected)), "checkout.rejected", err)
		}
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", confirmation.OrderID), "checkout.confirmed")
	}
	return confirmation, nil
}

// run executes one attempt through the state machine. Every step works
// on a snapshot owned by this attempt; nothing is written back to the
// session until the order is confirmed.
func (s *service) run(ctx context.Context, sessionID string, input Input) (*Confirmation, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := cart.Clone()
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	s.transition(ctx, StateValidatingAddress)
	resolved, err := s.addresses.Resolve(ctx, input.Address)
	if err != nil {
		return nil, err
	}

	s.transition(ctx, StateValidatingStock)
	stockResult, err := s.reconciler.Reconcile(ctx, snapshot.Lines)
	if err != nil {
		return nil, err
	}
	if !stockResult.OK {
		return nil, pkgerrors.New(pkgerrors.CodeStockShortfall, "insufficient stock").
			WithDetails(map[string]any{"shortfalls": stockResult.Shortfalls})
	}

	s.transition(ctx, StateComputing)
	subtotal := snapshot.Subtotal()

	discountPercentage := 0.0
	var couponID *string
	if snapshot.Coupon != nil {
		revalidated, err := s.coupons.Revalidate(ctx, &coupon.Resolution{
			CouponID:           snapshot.Coupon.CouponID,
			Code:               snapshot.Coupon.Code,
			DiscountPercentage: snapshot.Coupon.DiscountPercentage,
		})
		switch {
		case err == nil:
			discountPercentage = revalidated.DiscountPercentage
			id := revalidated.CouponID
			couponID = &id
		case pkgerrors.CodeOf(err) == pkgerrors.CodeCouponRejected:
			// The coupon lapsed between application and submission. The
			// attempt proceeds without a discount and the stale state is
			// dropped so the next quote matches what was charged.
			if s.logg != nil {
				s.logg.Warn(ctx, "checkout.coupon_lapsed")
			}
			s.dropCoupon(ctx, sessionID)
		default:
			return nil, err
		}
	}

	totals := ComputeTotals(subtotal, discountPercentage, s.policy)

	transactionID := ""
	if input.PaymentMethod != PaymentMethodCOD {
		transactionID = uuid.NewString()
	}

	lines := make([]commerce.OrderLine, len(snapshot.Lines))
	for i, line := range snapshot.Lines {
		lines[i] = commerce.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		}
	}

	s.transition(ctx, StateSubmitting)
	confirmation, err := s.orders.CreateOrder(ctx, commerce.OrderRequest{
		TotalPrice:    totals.Total,
		CouponID:      couponID,
		Status:        "pending",
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: "pending",
		TransactionID: transactionID,
		FullName:      resolved.Contact.FullName,
		Email:         resolved.Contact.Email,
		Phone:         resolved.Contact.Phone,
		Address:       resolved.Canonical(),
		Note:          input.Note,
		OrderDetails:  lines,
	})
	if err != nil {
		// The order service may re-validate stock and reject even after
		// the local pre-check passed; either way the session state must
		// survive so the user can retry without re-entering data.
		return nil, err
	}

	s.transition(ctx, StateConfirmed)
	s.clearSession(ctx, sessionID)

	return &Confirmation{
		OrderID:       confirmation.OrderID,
		TransactionID: transactionID,
		Totals:        totals,
	}, nil
}

func (s *service) Quote(ctx context.Context, sessionID string) (*Totals, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	discountPercentage := 0.0
	if cart.Coupon != nil {
		discountPercentage = cart.Coupon.DiscountPercentage
	}
	totals := ComputeTotals(cart.Subtotal(), discountPercentage, s.policy)
	return &totals, nil
}

func (s *service) Contact(ctx context.Context) (*commerce.Contact, error) {
	return s.orders.Me(ctx)
}

// dropCoupon persists the reset coupon state. Best effort: a storage
// failure here must not fail an otherwise valid attempt.
func (s *service) dropCoupon(ctx context.Context, sessionID string) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return
	}
	cart.Coupon = nil
	if err := s.store.Set(ctx, sessionID, cart); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "checkout.coupon_reset_not_persisted")
	}
}

// clearSession runs after confirmed success only. Uses a detached
// context so a cancelled request cannot leave a submitted order with a
// live cart.
func (s *service) clearSession(ctx context.Context, sessionID string) {
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.store.Clear(cleanupCtx, sessionID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	if err := s.store.ClearSelectedAddress(cleanupCtx, sessionID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "checkout.address_clear_failed", err)
	}
}

func (s *service) transition(ctx context.Context, state State) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "state", string(state)), "checkout.state")
}
