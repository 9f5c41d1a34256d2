package chi

import (
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/domain/search/params"
	logpkg "github.com/dpla/platform-search/internal/logger"
)

// Allower decides whether one more request for key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimitMiddleware rejects requests over the per-key budget with 403.
// Authenticated requests are keyed by API key, anonymous ones by client IP.
func RateLimitMiddleware(limiter Allower) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := APIKeyFromContext(r.Context())
			if !ok {
				key = "ip:" + clientIP(r)
			}
			if !limiter.Allow(key) {
				writeMiddlewareError(w, r, http.StatusForbidden, codeRateLimited, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// acceptable lists the media types the API can produce, including wildcards.
var acceptable = map[string]struct{}{
	"*/*":                    {},
	"application/*":          {},
	"application/json":       {},
	"application/javascript": {},
	"text/*":                 {},
	"text/javascript":        {},
}

// AcceptMiddleware answers 406 when the Accept header rules out JSON and JSONP.
func AcceptMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsJSON(r.Header.Values("Accept")) {
				writeMiddlewareError(w, r, http.StatusNotAcceptable, codeNotAcceptable,
					"Not Acceptable: only JSON and JSONP responses are available")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func acceptsJSON(headers []string) bool {
	if len(headers) == 0 {
		return true
	}
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if _, ok := acceptable[mediaType]; ok {
				return true
			}
		}
	}
	return false
}

// JSONRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func JSONRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeMiddlewareError(w, r, http.StatusInternalServerError, codeInternal, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func WideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request. The query is logged without the API key.
			query := r.URL.Query()
			query.Del(apiKeyParam)
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", query.Encode()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", clientIP(r)),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeMiddlewareError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeBody(w, r.URL.Query().Get(params.Callback), status, errorResponse{Code: code, Message: message})
}
