// Package schema holds the per-resource field schema.
//
// A Registry is built once (from YAML) and is read-only afterwards, so a single
// instance is shared by every request without locking.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// Extension is a query-only parameter derived from a mapped field.
type Extension string

// Query extensions accepted next to the mapped field names.
const (
	// Before bounds a date field from above: "<date>.before".
	Before Extension = "before"
	// After bounds a date field from below: "<date>.after".
	After Extension = "after"
	// Distance sets the radius of a geo filter: "<parent>.distance".
	Distance Extension = "distance"
)

type fieldSet struct {
	roots  []field.Field
	byName map[string]field.Field
}

// Registry is the immutable field schema of every resource.
type Registry struct {
	resources map[resource.Resource]*fieldSet
	mapped    []string
}

// New validates the field definitions and builds a Registry.
func New(defs map[resource.Resource][]field.Field) (*Registry, error) {
	r := &Registry{resources: make(map[resource.Resource]*fieldSet, len(defs))}
	names := make(map[string]struct{})

	for res, roots := range defs {
		if !res.IsValid() {
			return nil, fmt.Errorf("unknown resource %q in schema", res)
		}
		fs := &fieldSet{roots: roots, byName: make(map[string]field.Field)}
		var dup string
		for _, root := range roots {
			root.Walk(func(f field.Field) {
				if _, exists := fs.byName[f.Name()]; exists && dup == "" {
					dup = f.Name()
				}
				fs.byName[f.Name()] = f
				names[f.Name()] = struct{}{}
			})
		}
		if dup != "" {
			return nil, fmt.Errorf("duplicate field %q in %s schema", dup, res)
		}
		r.resources[res] = fs
	}

	for res, fs := range r.resources {
		for name := range fs.byName {
			for _, ext := range r.extensionsOf(res, name) {
				names[ext] = struct{}{}
			}
		}
	}

	r.mapped = make([]string, 0, len(names))
	for name := range names {
		r.mapped = append(r.mapped, name)
	}
	sort.Strings(r.mapped)

	return r, nil
}

// Resources returns the resources known to the schema, in a stable order.
func (r *Registry) Resources() []resource.Resource {
	out := make([]resource.Resource, 0, len(r.resources))
	for _, res := range resource.All {
		if _, ok := r.resources[res]; ok {
			out = append(out, res)
		}
	}
	return out
}

// Field returns the field at the given dotted path.
func (r *Registry) Field(res resource.Resource, path string) (field.Field, bool) {
	fs, ok := r.resources[res]
	if !ok {
		return field.Field{}, false
	}
	f, ok := fs.byName[path]
	return f, ok
}

// FieldByName returns the field at basePath carrying the given facet modifier.
func (r *Registry) FieldByName(res resource.Resource, basePath, modifier string) (field.Field, bool) {
	f, ok := r.Field(res, basePath)
	if !ok {
		return field.Field{}, false
	}
	return f.WithModifier(modifier), true
}

// Fields returns the top-level fields of a resource in definition order.
func (r *Registry) Fields(res resource.Resource) []field.Field {
	fs, ok := r.resources[res]
	if !ok {
		return nil
	}
	out := make([]field.Field, len(fs.roots))
	copy(out, fs.roots)
	return out
}

// AllMappedFieldNames returns every field name and query extension across all resources.
func (r *Registry) AllMappedFieldNames() []string {
	out := make([]string, len(r.mapped))
	copy(out, r.mapped)
	return out
}

// Extension resolves a query extension parameter to the field it applies to.
func (r *Registry) Extension(res resource.Resource, name string) (field.Field, Extension, bool) {
	base, suffix, ok := cutLast(name)
	if !ok {
		return field.Field{}, "", false
	}

	switch Extension(suffix) {
	case Before, After:
		f, ok := r.Field(res, base)
		if !ok || !f.IsDate() {
			return field.Field{}, "", false
		}
		return f, Extension(suffix), true
	case Distance:
		f, ok := r.geoFieldFor(res, base)
		if !ok {
			return field.Field{}, "", false
		}
		return f, Distance, true
	}
	return field.Field{}, "", false
}

// GeoDistanceParam returns the name of the distance parameter paired with a geo field.
func GeoDistanceParam(geo field.Field) string {
	if parent, _, ok := cutLast(geo.Name()); ok {
		return parent + "." + string(Distance)
	}
	return geo.Name() + "." + string(Distance)
}

// geoFieldFor finds the geo field whose distance parameter is "<base>.distance".
func (r *Registry) geoFieldFor(res resource.Resource, base string) (field.Field, bool) {
	f, ok := r.Field(res, base)
	if !ok {
		return field.Field{}, false
	}
	if f.IsGeoPoint() {
		return f, true
	}
	for _, sub := range f.Subfields() {
		if sub.IsGeoPoint() {
			return sub, true
		}
	}
	return field.Field{}, false
}

func (r *Registry) extensionsOf(res resource.Resource, name string) []string {
	f, _ := r.Field(res, name)
	switch {
	case f.IsDate():
		return []string{name + "." + string(Before), name + "." + string(After)}
	case f.IsGeoPoint():
		dist := GeoDistanceParam(f)
		if _, _, ok := r.Extension(res, dist); ok {
			return []string{dist}
		}
	}
	return nil
}

func cutLast(name string) (string, string, bool) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}
