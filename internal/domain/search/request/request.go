package request

import (
	"strings"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/facet"
	"github.com/dpla/platform-search/internal/domain/search/filter"
	"github.com/dpla/platform-search/internal/domain/search/query"
)

// Pagination defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxResultWindow bounds from+size, matching the engine's MAXSEARCHRESULTS default.
	MaxResultWindow = 10000
)

// Sort orders.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Sort is an explicit result ordering.
type Sort struct {
	Field string
	Order string
}

// Request is one compiled search. It is built fresh per call and discarded after dispatch.
type Request struct {
	resource   resource.Resource
	queries    []query.Clause
	filters    []filter.Condition
	facets     []facet.Spec
	facetIndex map[string]int
	from       int
	size       int
	sort       *Sort
	matchAll   bool
	fields     []string
}

// New creates an empty request for a resource with default pagination.
func New(res resource.Resource) *Request {
	return &Request{
		resource:   res,
		facetIndex: make(map[string]int),
		size:       DefaultPageSize,
	}
}

// Resource returns the searched resource.
func (r *Request) Resource() resource.Resource { return r.resource }

// AddQuery appends a full-text clause.
func (r *Request) AddQuery(c query.Clause) { r.queries = append(r.queries, c) }

// AddFilter appends a filter condition.
func (r *Request) AddFilter(c filter.Condition) { r.filters = append(r.filters, c) }

// AddFacet adds a facet keyed by its display name. Re-adding a name replaces
// the earlier spec in place.
func (r *Request) AddFacet(s facet.Spec) {
	if i, ok := r.facetIndex[s.Name]; ok {
		r.facets[i] = s
		return
	}
	r.facetIndex[s.Name] = len(r.facets)
	r.facets = append(r.facets, s)
}

// SetMatchAll marks the request as matching every document when no clause restricts it.
func (r *Request) SetMatchAll() { r.matchAll = true }

// SetPage sets the result window.
func (r *Request) SetPage(from, size int) {
	r.from = from
	r.size = size
}

// SetSort sets an explicit ordering.
func (r *Request) SetSort(s Sort) { r.sort = &s }

// SetFields restricts the attributes returned for each hit.
func (r *Request) SetFields(fields []string) { r.fields = fields }

// Queries returns the full-text clauses.
func (r *Request) Queries() []query.Clause { return r.queries }

// Filters returns the filter conditions.
func (r *Request) Filters() []filter.Condition { return r.filters }

// Facets returns the facet specs in insertion order.
func (r *Request) Facets() []facet.Spec { return r.facets }

// From returns the offset of the first hit.
func (r *Request) From() int { return r.from }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// Sort returns the explicit ordering, nil for relevance order.
func (r *Request) Sort() *Sort { return r.sort }

// MatchAll reports whether an unconstrained query was requested.
func (r *Request) MatchAll() bool { return r.matchAll }

// Fields returns the projection, nil for the full document.
func (r *Request) Fields() []string { return r.fields }

// Paginate computes the result window from the raw page and page_size values.
// A page size of zero or less selects defaultSize; sizes above maxSize are capped.
// Page 0 (and any non-positive page) starts at the first hit. A window ending
// past MaxResultWindow is a BadRequest.
func Paginate(page, pageSize, defaultSize, maxSize int) (from, size int, err error) {
	size = pageSize
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	if page <= 0 {
		return 0, size, nil
	}
	if size > 0 && page > MaxResultWindow/size {
		return 0, 0, domain.BadRequest("Page out of range: page * page_size must not exceed %d", MaxResultWindow)
	}
	return size * (page - 1), size, nil
}

// NormalizeOrder returns "asc" or "desc", defaulting to "asc".
func NormalizeOrder(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), Desc) {
		return Desc
	}
	return Asc
}
