package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/params"
	"github.com/dpla/platform-search/internal/domain/search/result"
	healthuc "github.com/dpla/platform-search/internal/usecase/health"
	"github.com/dpla/platform-search/internal/version"
)

// strippedParams never reach validation: the key is consumed by auth and "_" is a JSONP cache buster.
var strippedParams = []string{apiKeyParam, "_"}

// Searcher is the search surface the server exposes.
type Searcher interface {
	Search(ctx context.Context, res resource.Resource, p params.Params) (result.Envelope, error)
	Fetch(ctx context.Context, res resource.Resource, ids string) (result.Fetch, error)
}

// ContextProvider builds the JSON-LD context of a resource.
type ContextProvider interface {
	Context(res resource.Resource) (map[string]any, bool)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the search API over chi.
type Server struct {
	search        Searcher
	contexts      ContextProvider
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, contexts ContextProvider, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:   search,
		contexts: contexts,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrBadRequest, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized),
		sentinelHandler(domain.ErrRateLimitExceeded, http.StatusForbidden, codeRateLimited),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotAcceptable, http.StatusNotAcceptable, codeNotAcceptable),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		for _, res := range resource.All {
			r.Get("/"+res.String(), s.SearchResource(res))
			r.Get("/"+res.String()+"/context", s.ResourceContext(res))
			r.Get("/"+res.String()+"/{ids}", s.FetchResource(res))
		}
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, codeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, codeBadRequest, "Method not allowed")
	})
}

// SearchResource handles GET /v1/{resource}.
func (s *Server) SearchResource(res resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := s.search.Search(r.Context(), res, paramsFromQuery(r))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, env)
	}
}

// FetchResource handles GET /v1/{resource}/{ids}.
func (s *Server) FetchResource(res resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		err := runtime.BindStyledParameterWithOptions("simple", "ids", chi.URLParam(r, "ids"), &ids,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			s.handleDomainError(w, r, domain.BadRequest("Invalid ids specified: %s", chi.URLParam(r, "ids")))
			return
		}

		out, err := s.search.Fetch(r.Context(), res, strings.Join(ids, ","))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, out)
	}
}

// ResourceContext handles GET /v1/{resource}/context. It needs no API key.
func (s *Server) ResourceContext(res resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := s.contexts.Context(res)
		if !ok {
			s.handleDomainError(w, r, domain.NotFound("No context defined for %s", res))
			return
		}
		s.writeJSON(w, r, http.StatusOK, doc)
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	s.writeJSON(w, r, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  report.Checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string                          `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version"`
}

// paramsFromQuery flattens the query string, keeping the first value of each key.
func paramsFromQuery(r *http.Request) params.Params {
	q := r.URL.Query()
	for _, k := range strippedParams {
		q.Del(k)
	}
	p := make(params.Params, len(q))
	for k, v := range q {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	return p
}
