package commerce

import (
	"context"
	"strings"
)

type tokenKey struct{}

// ContextWithToken stores the caller's bearer token for commerce calls.
func ContextWithToken(ctx context.Context, token string) context.Context {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, trimmed)
}

// TokenFromContext returns the bearer token carried by ctx, if any.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	return ""
}
