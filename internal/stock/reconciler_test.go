package stock

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
)

type stubProducts struct {
	quantities map[string]int
	errs       map[string]error
	calls      int32
}

func (s *stubProducts) GetProduct(ctx context.Context, id string) (*commerce.Product, error) {
	atomic.AddInt32(&s.calls, 1)
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	return &commerce.Product{ID: id, Quantity: s.quantities[id]}, nil
}

func TestReconcileAllSufficient(t *testing.T) {
	t.Parallel()

	products := &stubProducts{quantities: map[string]int{"p-1": 10, "p-2": 5}}
	reconciler, err := NewReconciler(products)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}

	result, err := reconciler.Reconcile(context.Background(), []cartstore.Line{
		{ProductID: "p-1", Quantity: 3},
		{ProductID: "p-2", Quantity: 5},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.OK || len(result.Shortfalls) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if atomic.LoadInt32(&products.calls) != 2 {
		t.Errorf("calls = %d, want one per distinct product", products.calls)
	}
}

func TestReconcileReportsEveryShortfall(t *testing.T) {
	t.Parallel()

	products := &stubProducts{quantities: map[string]int{"p-1": 3, "p-2": 0, "p-3": 100}}
	reconciler, _ := NewReconciler(products)

	result, err := reconciler.Reconcile(context.Background(), []cartstore.Line{
		{ProductID: "p-1", Quantity: 5},
		{ProductID: "p-2", Quantity: 1},
		{ProductID: "p-3", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.OK {
		t.Fatal("expected shortfalls")
	}
	want := []Shortfall{
		{ProductID: "p-1", Requested: 5, Available: 3},
		{ProductID: "p-2", Requested: 1, Available: 0},
	}
	if len(result.Shortfalls) != len(want) {
		t.Fatalf("shortfalls = %+v", result.Shortfalls)
	}
	for i, sf := range want {
		if result.Shortfalls[i] != sf {
			t.Errorf("shortfall[%d] = %+v, want %+v", i, result.Shortfalls[i], sf)
		}
	}
}

func TestReconcileFetchFailureIsNotSufficientStock(t *testing.T) {
	t.Parallel()

	products := &stubProducts{
		quantities: map[string]int{"p-1": 10},
		errs:       map[string]error{"p-2": pkgerrors.New(pkgerrors.CodeDependency, "connection refused")},
	}
	reconciler, _ := NewReconciler(products)

	result, err := reconciler.Reconcile(context.Background(), []cartstore.Line{
		{ProductID: "p-1", Quantity: 1},
		{ProductID: "p-2", Quantity: 1},
	})
	if result != nil {
		t.Fatal("no result may be produced when a fetch failed")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("code = %s, want %s", pkgerrors.CodeOf(err), pkgerrors.CodeDependency)
	}
}

func TestReconcileAuthExpiredPropagates(t *testing.T) {
	t.Parallel()

	products := &stubProducts{
		errs: map[string]error{"p-1": pkgerrors.New(pkgerrors.CodeAuthExpired, "authentication expired")},
	}
	reconciler, _ := NewReconciler(products)

	_, err := reconciler.Reconcile(context.Background(), []cartstore.Line{{ProductID: "p-1", Quantity: 1}})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeAuthExpired {
		t.Fatalf("code = %s, want %s", pkgerrors.CodeOf(err), pkgerrors.CodeAuthExpired)
	}
}

func TestReconcileEmptyCart(t *testing.T) {
	t.Parallel()

	reconciler, _ := NewReconciler(&stubProducts{})
	_, err := reconciler.Reconcile(context.Background(), nil)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("code = %s", pkgerrors.CodeOf(err))
	}
}
