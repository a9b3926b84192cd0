package controllers

import (
	"context"
	"net/http"

	"github.com/mvaldez-dev/storefront-checkout/api/responses"
	"github.com/mvaldez-dev/storefront-checkout/pkg/config"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
)

type readinessPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the session store before reporting ready. The
// commerce API is intentionally excluded; its outages surface per
// request as DEPENDENCY_ERROR rather than taking the whole service out
// of rotation.
func HealthReady(cfg *config.Config, logg *logger.Logger, store readinessPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		if store != nil {
			if err := store.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
