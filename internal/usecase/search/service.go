package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/facet"
	"github.com/dpla/platform-search/internal/domain/search/filter"
	"github.com/dpla/platform-search/internal/domain/search/params"
	"github.com/dpla/platform-search/internal/domain/search/query"
	"github.com/dpla/platform-search/internal/domain/search/request"
	"github.com/dpla/platform-search/internal/domain/search/result"
	"github.com/dpla/platform-search/internal/logger"
	"github.com/dpla/platform-search/internal/metrics"
)

// MaxFetchIDs is the maximum number of ids in one fetch request.
const MaxFetchIDs = 100

// Options tune pagination. Zero values select the request package defaults.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service compiles parameter maps into search requests and reshapes the results.
type Service struct {
	schema  Schema
	engine  Engine
	docs    Documents
	queries *query.Builder
	filters *filter.Builder
	facets  *facet.Builder
	mapped  []string
	opts    Options
}

// New creates a search service. The schema must not change afterwards.
func New(schema Schema, engine Engine, docs Documents, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = request.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = request.MaxPageSize
	}
	return &Service{
		schema:  schema,
		engine:  engine,
		docs:    docs,
		queries: query.NewBuilder(schema),
		filters: filter.NewBuilder(schema),
		facets:  facet.NewBuilder(schema),
		mapped:  schema.AllMappedFieldNames(),
		opts:    opts,
	}
}

// Search validates params, compiles and dispatches one search and reshapes the result.
func (s *Service) Search(ctx context.Context, res resource.Resource, p params.Params) (result.Envelope, error) {
	if err := params.Validate(p, s.mapped); err != nil {
		return result.Envelope{}, err
	}

	req, err := s.Compile(res, p)
	if err != nil {
		return result.Envelope{}, err
	}

	for _, spec := range req.Facets() {
		metrics.FacetsRequestedTotal.WithLabelValues(string(spec.Kind)).Inc()
	}

	logger.FromContext(ctx).Debug("Compiled search request",
		zap.String("resource", res.String()),
		zap.Int("queries", len(req.Queries())),
		zap.Int("filters", len(req.Filters())),
		zap.Int("facets", len(req.Facets())),
		zap.Int("from", req.From()),
		zap.Int("size", req.Size()),
		zap.Bool("match_all", req.MatchAll()),
	)

	raw, err := s.engine.Search(ctx, req)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("search %s: %w", res, err)
	}

	return result.NewEnvelope(raw, req.From(), req.Size()), nil
}

// Compile builds the search request for already validated params.
func (s *Service) Compile(res resource.Resource, p params.Params) (*request.Request, error) {
	req := request.New(res)

	hasQuery, err := s.queries.BuildAll(req, p)
	if err != nil {
		return nil, err
	}
	hasFilter, err := s.filters.BuildAll(req, p)
	if err != nil {
		return nil, err
	}
	if _, err := s.facets.BuildAll(req, p.Get(params.Facets), !hasQuery && !hasFilter); err != nil {
		return nil, err
	}

	from, size, err := request.Paginate(p.Int(params.Page), p.Int(params.PageSize), s.opts.DefaultPageSize, s.opts.MaxPageSize)
	if err != nil {
		return nil, err
	}
	req.SetPage(from, size)

	if sortBy := p.Get(params.SortBy); sortBy != "" {
		sortField, err := s.sortField(res, sortBy)
		if err != nil {
			return nil, err
		}
		req.SetSort(request.Sort{Field: sortField, Order: request.NormalizeOrder(p.Get(params.SortOrder))})
	}

	if p.Has(params.Fields) {
		fields, err := s.projection(res, p.Get(params.Fields))
		if err != nil {
			return nil, err
		}
		req.SetFields(fields)
	}

	return req, nil
}

// sortField returns the index field to order by. Text fields sort by their
// not-analyzed variant.
func (s *Service) sortField(res resource.Resource, name string) (string, error) {
	f, ok := s.schema.Field(res, name)
	if !ok || !f.IsSortable() {
		return "", domain.BadRequest("Invalid field specified in sort_by parameter: %s", name)
	}
	if na, ok := f.NotAnalyzed(); ok {
		return na.Name(), nil
	}
	return f.Name(), nil
}

func (s *Service) projection(res resource.Resource, value string) ([]string, error) {
	fields := params.SplitList(value)
	var invalid []string
	for _, name := range fields {
		if _, ok := s.schema.Field(res, name); !ok {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return nil, domain.BadRequest("Invalid field(s) specified in fields parameter: %s", strings.Join(invalid, ","))
	}
	return fields, nil
}

// Fetch returns the documents with the given comma-separated ids in request order.
// Missing ids are marked; when none exists the call fails with NotFound.
func (s *Service) Fetch(ctx context.Context, res resource.Resource, ids string) (result.Fetch, error) {
	list := result.ParseIDs(ids)
	if len(list) == 0 {
		return result.Fetch{}, domain.BadRequest("No id specified")
	}
	if len(list) > MaxFetchIDs {
		return result.Fetch{}, domain.BadRequest("Too many ids specified (max %d)", MaxFetchIDs)
	}

	found, err := s.docs.FetchByIDs(ctx, res, list)
	if err != nil {
		return result.Fetch{}, fmt.Errorf("fetch %s: %w", res, err)
	}

	out := result.NewFetch(list, found)
	if out.Found() == 0 {
		return result.Fetch{}, domain.NotFound("Document(s) not found: %s", strings.Join(list, ","))
	}
	return out, nil
}
