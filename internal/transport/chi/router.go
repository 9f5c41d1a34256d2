package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/metrics"
)

// RouterOptions configure the middleware chain.
type RouterOptions struct {
	APIKeys        []string
	AllowedOrigins []string
	// Limiter is optional; nil disables rate limiting.
	Limiter Allower
}

// NewRouter assembles the middleware chain and mounts the server routes.
func NewRouter(s *Server, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(AcceptMiddleware())
	r.Use(APIKeyAuthMiddleware(opts.APIKeys))
	if opts.Limiter != nil {
		r.Use(RateLimitMiddleware(opts.Limiter))
	}
	r.Use(metrics.Middleware())

	s.Mount(r)
	return r
}
