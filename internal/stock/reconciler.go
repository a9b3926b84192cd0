package stock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type productFetcher interface {
	GetProduct(ctx context.Context, id string) (*commerce.Product, error)
}

// Shortfall reports one cart line whose requested quantity exceeds the
// authoritative availability.
type Shortfall struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Result is the combined outcome of a reconciliation pass.
type Result struct {
	OK         bool
	Shortfalls []Shortfall
}

// Reconciler checks a cart against live per-product availability. It is
// advisory only: it never reserves or decrements stock, and the order
// service re-validates at commit time.
type Reconciler struct {
	products productFetcher
}

// NewReconciler builds a stock reconciler over the commerce API.
func NewReconciler(products productFetcher) (*Reconciler, error) {
	if products == nil {
		return nil, fmt.Errorf("product fetcher required")
	}
	return &Reconciler{products: products}, nil
}

// Reconcile fetches availability for every distinct product concurrently
// and reports the full shortfall list. A failed fetch surfaces as an
// error (network or auth), never as sufficient stock.
func (r *Reconciler) Reconcile(ctx context.Context, lines []cartstore.Line) (*Result, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Merge duplicate product ids defensively; the cart store already
	// guarantees uniqueness.
	requested := make(map[string]int, len(lines))
	for _, line := range lines {
		requested[line.ProductID] += line.Quantity
	}

	var mu sync.Mutex
	available := make(map[string]int, len(requested))

	group, groupCtx := errgroup.WithContext(ctx)
	for productID := range requested {
		productID := productID
		group.Go(func() error {
			product, err := r.products.GetProduct(groupCtx, productID)
			if err != nil {
				return err
			}
			mu.Lock()
			available[productID] = product.Quantity
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stock")
	}

	var shortfalls []Shortfall
	for productID, want := range requested {
		have := available[productID]
		if want > have {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: productID,
				Requested: want,
				Available: have,
			})
		}
	}
	sort.Slice(shortfalls, func(i, j int) bool {
		return shortfalls[i].ProductID < shortfalls[j].ProductID
	})

	return &Result{OK: len(shortfalls) == 0, Shortfalls: shortfalls}, nil
}
