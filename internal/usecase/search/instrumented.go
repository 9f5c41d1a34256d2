package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/params"
	"github.com/dpla/platform-search/internal/domain/search/result"
	"github.com/dpla/platform-search/internal/metrics"
)

// Searcher is the search and fetch surface shared by the service and its decorators.
type Searcher interface {
	Search(ctx context.Context, res resource.Resource, p params.Params) (result.Envelope, error)
	Fetch(ctx context.Context, res resource.Resource, ids string) (result.Fetch, error)
}

// InstrumentedSearcher wraps a Searcher with request metrics and failure logging.
type InstrumentedSearcher struct {
	inner  Searcher
	logger *zap.Logger
}

// NewInstrumentedSearcher wraps a searcher with observability.
func NewInstrumentedSearcher(inner Searcher, logger *zap.Logger) *InstrumentedSearcher {
	return &InstrumentedSearcher{inner: inner, logger: logger}
}

// Search delegates to the inner searcher and records the outcome.
func (s *InstrumentedSearcher) Search(
	ctx context.Context, res resource.Resource, p params.Params,
) (result.Envelope, error) {
	start := time.Now()
	env, err := s.inner.Search(ctx, res, p)
	s.observe(res, "search", time.Since(start), err)
	return env, err
}

// Fetch delegates to the inner searcher and records the outcome.
func (s *InstrumentedSearcher) Fetch(ctx context.Context, res resource.Resource, ids string) (result.Fetch, error) {
	start := time.Now()
	out, err := s.inner.Fetch(ctx, res, ids)
	s.observe(res, "fetch", time.Since(start), err)
	return out, err
}

func (s *InstrumentedSearcher) observe(res resource.Resource, op string, duration time.Duration, err error) {
	status := statusOf(err)
	metrics.SearchRequestsTotal.WithLabelValues(res.String(), op, status).Inc()
	metrics.RequestDuration.WithLabelValues(res.String(), op).Observe(duration.Seconds())

	switch status {
	case "ok", "bad_request", "not_found":
		s.logger.Debug("Search request completed",
			zap.String("resource", res.String()),
			zap.String("operation", op),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	default:
		s.logger.Error("Search request failed",
			zap.String("resource", res.String()),
			zap.String("operation", op),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
}

// statusOf classifies an outcome for the status metric label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
