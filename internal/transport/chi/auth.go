package chi

import (
	"context"
	"net/http"
	"strings"
)

const apiKeyParam = "api_key"

// exemptPaths are routes that bypass authentication: health, metrics and the JSON-LD contexts.
var exemptPaths = map[string]struct{}{
	"/health":                 {},
	"/metrics":                {},
	"/v1/items/context":       {},
	"/v1/collections/context": {},
}

type apiKeyCtxKey struct{}

// APIKeyFromContext returns the key the request authenticated with.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(apiKeyCtxKey{}).(string)
	return key, ok && key != ""
}

// APIKeyAuthMiddleware returns a middleware that validates API keys passed as the
// api_key query parameter or as a Bearer token.
// If apiKeys is empty, authentication is disabled (pass-through).
func APIKeyAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled, pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := requestAPIKey(r)
			if !ok {
				writeMiddlewareError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing API key")
				return
			}
			if _, valid := validKeys[key]; !valid {
				writeMiddlewareError(w, r, http.StatusUnauthorized, codeUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestAPIKey prefers the query parameter over the Authorization header.
func requestAPIKey(r *http.Request) (string, bool) {
	if key := r.URL.Query().Get(apiKeyParam); key != "" {
		return key, true
	}

	const bearerPrefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", false
	}
	key := strings.TrimSpace(auth[len(bearerPrefix):])
	return key, key != ""
}
