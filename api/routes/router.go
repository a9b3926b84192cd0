package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvaldez-dev/storefront-checkout/api/controllers"
	"github.com/mvaldez-dev/storefront-checkout/api/middleware"
	"github.com/mvaldez-dev/storefront-checkout/internal/cart"
	checkoutsvc "github.com/mvaldez-dev/storefront-checkout/internal/checkout"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	"github.com/mvaldez-dev/storefront-checkout/pkg/config"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
	"github.com/mvaldez-dev/storefront-checkout/pkg/redis"
)

// NewRouter wires the storefront checkout API. Every /api/v1 route
// requires a bearer token and runs inside a session scope.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	commerceAPI commerce.API,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BearerToken(logg))
		r.Use(middleware.Session(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{productID}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/coupon", func(r chi.Router) {
			r.Post("/", controllers.CouponApply(cartService, logg))
			r.Delete("/", controllers.CouponRemove(cartService, logg))
		})

		r.Get("/addresses", controllers.AddressList(commerceAPI, logg))
		r.Route("/address/selection", func(r chi.Router) {
			r.Get("/", controllers.AddressSelection(cartService, logg))
			r.Put("/", controllers.AddressSelect(cartService, logg))
			r.Delete("/", controllers.AddressSelectionClear(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutSubmit(checkoutService, cartService, logg))
			r.Get("/quote", controllers.CheckoutQuote(checkoutService, logg))
			r.Get("/contact", controllers.CheckoutContact(checkoutService, logg))
		})
	})

	return r
}
