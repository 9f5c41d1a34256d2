// Package facet resolves requested facet names to schema fields and builds
// engine-ready facet specifications.
package facet

import (
	"strings"

	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// Kind is the facet algorithm.
type Kind string

// Facet algorithms.
const (
	Terms         Kind = "terms"
	DateHistogram Kind = "date_histogram"
	Range         Kind = "range"
	GeoDistance   Kind = "geo_distance"
)

// Date interval modifiers recognised after the last dot of a facet token.
const (
	Century = "century"
	Decade  = "decade"
	Year    = "year"
	Month   = "month"
)

var nameIntervals = map[string]struct{}{Century: {}, Decade: {}, Year: {}, Month: {}}

// Order of facet buckets.
type Order struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

// Bucket ordering keys.
const (
	OrderByCount = "_count"
	OrderByKey   = "_key"
)

// Span is one bucket of a range or geo_distance facet. A nil bound is open.
type Span struct {
	From *float64 `json:"from,omitempty"`
	To   *float64 `json:"to,omitempty"`
}

// Params are the algorithm-specific facet parameters. Unused fields stay zero.
type Params struct {
	Size        int     `json:"size,omitempty"`
	Order       Order   `json:"order"`
	Interval    string  `json:"interval,omitempty"`
	MinDocCount int     `json:"min_doc_count,omitempty"`
	Origin      string  `json:"origin,omitempty"`
	Lat         float64 `json:"-"`
	Lng         float64 `json:"-"`
	Unit        string  `json:"unit,omitempty"`
	Width       float64 `json:"-"`
	Ranges      []Span  `json:"ranges,omitempty"`
}

// Spec is one resolved facet request.
type Spec struct {
	// Name is the display name the result is surfaced under.
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Field is the index field the aggregation runs against.
	Field  string `json:"field"`
	Params Params `json:"params"`
}

// FieldLookup finds a schema field and attaches a facet modifier to it.
type FieldLookup interface {
	FieldByName(res resource.Resource, basePath, modifier string) (field.Field, bool)
}

// ParseName resolves a facet token to a field.
// A colon splits base and modifier first; otherwise a trailing date interval
// after the last dot is the modifier; otherwise the whole token is the base.
func ParseName(schema FieldLookup, res resource.Resource, token string) (field.Field, bool) {
	base, modifier := splitName(token)
	return schema.FieldByName(res, base, modifier)
}

func splitName(token string) (string, string) {
	if base, modifier, ok := strings.Cut(token, ":"); ok {
		return base, modifier
	}
	if i := strings.LastIndex(token, "."); i >= 0 {
		if _, ok := nameIntervals[token[i+1:]]; ok {
			return token[:i], token[i+1:]
		}
	}
	return token, ""
}

type rule struct {
	kind  Kind
	match func(field.Field) bool
}

// selection is evaluated in order; the first matching rule wins.
var selection = []rule{
	{GeoDistance, func(f field.Field) bool { return f.IsGeoPoint() }},
	{DateHistogram, func(f field.Field) bool { return isDate(f) && !isRangeInterval(f.FacetModifier()) }},
	{Range, func(f field.Field) bool { return isDate(f) && isRangeInterval(f.FacetModifier()) }},
	{Terms, func(field.Field) bool { return true }},
}

// TypeOf returns the facet algorithm for a field.
func TypeOf(f field.Field) Kind {
	for _, r := range selection {
		if r.match(f) {
			return r.kind
		}
	}
	return Terms
}

func isDate(f field.Field) bool {
	return f.IsDate() || f.IsMultiFieldDate()
}

func isRangeInterval(modifier string) bool {
	return modifier == Century || modifier == Decade
}

// FieldName returns the index field a facet aggregates on.
func FieldName(f field.Field) string {
	if f.IsDate() {
		return f.Name()
	}
	if na, ok := f.NotAnalyzed(); ok {
		return na.Name()
	}
	return f.Name()
}

// DisplayName returns the key the facet result is surfaced under.
func DisplayName(f field.Field) string {
	if f.IsDate() && f.FacetModifier() != "" {
		return f.Name() + "." + f.FacetModifier()
	}
	return f.Name()
}
