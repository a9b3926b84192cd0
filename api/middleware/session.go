package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mvaldez-dev/storefront-checkout/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// Session binds each request to a storefront session. A missing header
// mints a fresh session id; the header echo lets the client persist it.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			w.Header().Set(sessionIDHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
