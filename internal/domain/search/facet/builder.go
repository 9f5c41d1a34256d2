package facet

import (
	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
	"github.com/dpla/platform-search/internal/domain/search/params"
)

// Schema is the field lookup the builder needs.
type Schema interface {
	FieldLookup
	Field(res resource.Resource, path string) (field.Field, bool)
}

// Target receives the facet specs of one search request.
type Target interface {
	Resource() resource.Resource
	AddFacet(spec Spec)
	SetMatchAll()
}

// Builder resolves the facets parameter into facet specs.
type Builder struct {
	schema Schema
}

// NewBuilder creates a facet builder over a schema.
func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// Expand replaces non-facetable fields with their facetable non-geo subfields.
// Names that cannot be expanded pass through unchanged.
func (b *Builder) Expand(res resource.Resource, names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, name := range names {
		f, ok := b.schema.Field(res, name)
		if !ok || f.IsFacetable() {
			add(name)
			continue
		}

		var subs []string
		for _, sub := range f.Subfields() {
			if sub.IsFacetable() && !sub.IsGeoPoint() {
				subs = append(subs, sub.Name())
			}
		}
		if len(subs) == 0 {
			add(name)
			continue
		}
		for _, s := range subs {
			add(s)
		}
	}
	return out
}

// Resolve expands and validates the requested names and builds their specs.
// Any invalid name fails the whole set.
func (b *Builder) Resolve(res resource.Resource, names []string) ([]Spec, error) {
	expanded := b.Expand(res, names)
	specs := make([]Spec, 0, len(expanded))
	for _, name := range expanded {
		f, ok := ParseName(b.schema, res, name)
		if !ok {
			return nil, domain.BadRequest("Invalid field(s) specified in facets parameter: %s", name)
		}
		if !f.IsFacetable() {
			return nil, domain.BadRequest("Non-facetable field specified in facets parameter: %s", name)
		}
		spec, err := BuildSpec(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// BuildAll attaches the facets named in facetsParam to t and reports whether
// any were attached. With allowEmptyQuery set, an attached facet marks the
// request as match-all.
func (b *Builder) BuildAll(t Target, facetsParam string, allowEmptyQuery bool) (bool, error) {
	names := params.SplitList(facetsParam)
	if len(names) == 0 {
		return false, nil
	}

	specs, err := b.Resolve(t.Resource(), names)
	if err != nil {
		return false, err
	}
	for _, spec := range specs {
		t.AddFacet(spec)
	}

	attached := len(specs) > 0
	if attached && allowEmptyQuery {
		t.SetMatchAll()
	}
	return attached, nil
}
