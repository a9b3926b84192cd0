package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mvaldez-dev/storefront-checkout/api/routes"
	"github.com/mvaldez-dev/storefront-checkout/internal/address"
	"github.com/mvaldez-dev/storefront-checkout/internal/cart"
	"github.com/mvaldez-dev/storefront-checkout/internal/cartstore"
	"github.com/mvaldez-dev/storefront-checkout/internal/checkout"
	"github.com/mvaldez-dev/storefront-checkout/internal/coupon"
	"github.com/mvaldez-dev/storefront-checkout/internal/stock"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	"github.com/mvaldez-dev/storefront-checkout/pkg/config"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
	"github.com/mvaldez-dev/storefront-checkout/pkg/metrics"
	"github.com/mvaldez-dev/storefront-checkout/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "checkout-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkout-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	commerceClient, err := commerce.NewClient(cfg.Commerce)
	if err != nil {
		logg.Error(context.Background(), "failed to build commerce client", err)
		os.Exit(1)
	}

	store, err := cartstore.NewRedisStore(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart store", err)
		os.Exit(1)
	}

	couponResolver, err := coupon.NewResolver(commerceClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build coupon resolver", err)
		os.Exit(1)
	}

	addressResolver, err := address.NewResolver(commerceClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build address resolver", err)
		os.Exit(1)
	}

	reconciler, err := stock.NewReconciler(commerceClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build stock reconciler", err)
		os.Exit(1)
	}

	locker, err := checkout.NewRedisLocker(redisClient, cfg.Checkout.AttemptLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build attempt locker", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	cartService, err := cart.NewService(store, commerceClient, couponResolver)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		store,
		reconciler,
		addressResolver,
		couponResolver,
		commerceClient,
		locker,
		checkout.Policy{
			FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
			FlatShippingFee:       cfg.Checkout.FlatShippingFee,
		},
		logg,
		checkoutMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting checkout api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			commerceClient,
			cartService,
			checkoutService,
			registry,
		),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "checkout api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			if err := server.Close(); err != nil {
				logg.Error(ctx, "forced close failed", err)
			}
		}
	}
}
