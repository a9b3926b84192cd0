package middleware

import (
	"net/http"
	"strings"

	"github.com/mvaldez-dev/storefront-checkout/api/responses"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
)

// BearerToken lifts the Authorization bearer token into the context for
// the commerce client. Tokens are never validated locally; the commerce
// API is the authority and a remote 401 surfaces as AUTH_EXPIRED.
func BearerToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if header == "" || token == "" || !strings.HasPrefix(header, "Bearer ") {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeAuthExpired, "bearer token required"))
				return
			}

			ctx := commerce.ContextWithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
