package db

import (
	"github.com/dpla/platform-search/internal/domain/search/facet"
	"github.com/dpla/platform-search/internal/domain/search/filter"
	"github.com/dpla/platform-search/internal/domain/search/query"
)

// SearchQuery is the input for a search with facets.
// Field names in clauses, filters, facets and sort are dotted schema names;
// the store maps them to index attributes with Attr. Hits carry the whole
// document under the "$" field.
type SearchQuery struct {
	IndexName string
	Clauses   []query.Clause
	Filters   []filter.Condition
	Facets    []facet.Spec
	Offset    int
	Limit     int
	Sort      *Sort
}

// Sort orders hits by a sortable attribute.
type Sort struct {
	Field string
	Desc  bool
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
	Facets  []FacetResult
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// FacetResult holds the buckets of one facet, keyed by the facet display name.
type FacetResult struct {
	Name    string
	Buckets []Bucket
}

// Bucket is one aggregation group. Key is the raw group value as returned by the engine:
// the term for terms facets, the truncated date for date histograms and the
// bucket ordinal for range and geo distance facets.
type Bucket struct {
	Key   string
	Count int
}
