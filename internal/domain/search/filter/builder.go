package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
	"github.com/dpla/platform-search/internal/domain/schema/field"
	"github.com/dpla/platform-search/internal/domain/search/facet"
	"github.com/dpla/platform-search/internal/domain/search/params"
	"github.com/dpla/platform-search/internal/domain/search/query"
)

// DefaultDistance applies to a geo filter without a distance parameter.
const DefaultDistance = "20mi"

// Schema is the field lookup the builder needs.
type Schema interface {
	Field(res resource.Resource, path string) (field.Field, bool)
	Extension(res resource.Resource, name string) (field.Field, schema.Extension, bool)
}

// Target receives the filter conditions of one search request.
type Target interface {
	Resource() resource.Resource
	AddFilter(c Condition)
}

// Builder compiles field parameters into filter conditions.
type Builder struct {
	schema Schema
}

// NewBuilder creates a filter builder over a schema.
func NewBuilder(s Schema) *Builder {
	return &Builder{schema: s}
}

// BuildAll attaches a condition for every field parameter not compiled into a
// query clause and reports whether any condition was attached.
func (b *Builder) BuildAll(t Target, p params.Params) (bool, error) {
	res := t.Resource()
	var (
		conds   []Condition
		invalid []string
	)

	for _, key := range p.FieldKeys() {
		if f, ok := b.schema.Field(res, key); ok {
			if query.Owns(f) {
				continue
			}
			c, err := b.fieldCondition(res, f, p)
			if err != nil {
				return false, err
			}
			conds = append(conds, c)
			continue
		}

		f, ext, ok := b.schema.Extension(res, key)
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		switch ext {
		case schema.Before, schema.After:
			c, err := dateBound(f.Name(), ext, key, p.Get(key))
			if err != nil {
				return false, err
			}
			conds = append(conds, c)
		case schema.Distance:
			if !p.Has(f.Name()) {
				return false, domain.BadRequest("Distance specified without coordinates: %s requires %s", key, f.Name())
			}
		}
	}

	if len(invalid) > 0 {
		return false, domain.BadRequest("Invalid field(s) specified in query: %s", strings.Join(invalid, ","))
	}
	if len(conds) > MaxConditions {
		return false, domain.BadRequest("Too many filter conditions (max %d)", MaxConditions)
	}

	for _, c := range conds {
		t.AddFilter(c)
	}
	return len(conds) > 0, nil
}

func (b *Builder) fieldCondition(res resource.Resource, f field.Field, p params.Params) (Condition, error) {
	key := f.Name()
	value := p.Get(key)
	if value == "" {
		return Condition{}, domain.BadRequest("Empty value specified for field: %s", key)
	}

	switch f.Kind() {
	case field.Numeric:
		return numericCondition(key, value)
	case field.Date:
		start, end, err := ParseDate(value)
		if err != nil {
			return Condition{}, domain.BadRequest("Invalid date specified for field %s: %s", key, value)
		}
		r, err := NewRangeFilter(nil, &start, &end, nil)
		if err != nil {
			return Condition{}, err
		}
		return NewRange(key, r)
	case field.GeoPoint:
		return b.geoCondition(res, f, value, p)
	case field.Object:
		keys := keywordFields(f)
		if len(keys) == 0 {
			return Condition{}, domain.BadRequest("Field cannot be queried: %s", key)
		}
		values := params.SplitList(value)
		if len(values) == 0 {
			return Condition{}, domain.BadRequest("Empty value specified for field: %s", key)
		}
		return NewMatchAny(keys, values...)
	default:
		values := params.SplitList(value)
		if len(values) == 0 {
			return Condition{}, domain.BadRequest("Empty value specified for field: %s", key)
		}
		return NewMatch(key, values...)
	}
}

// keywordFields returns every keyword field nested under an object.
func keywordFields(f field.Field) []string {
	var names []string
	f.Walk(func(sub field.Field) {
		if sub.Kind() == field.Keyword {
			names = append(names, sub.Name())
		}
	})
	return names
}

// numericCondition parses "v" (exact) or "min..max" where either side may be empty.
func numericCondition(key, value string) (Condition, error) {
	invalid := func() (Condition, error) {
		return Condition{}, domain.BadRequest("Invalid numeric value specified for field %s: %s", key, value)
	}

	lo, hi, isRange := strings.Cut(value, "..")
	if !isRange {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid()
		}
		r, err := NewRangeFilter(nil, &v, nil, &v)
		if err != nil {
			return invalid()
		}
		return NewRange(key, r)
	}

	var gte, lte *float64
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return invalid()
		}
		gte = &v
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return invalid()
		}
		lte = &v
	}
	r, err := NewRangeFilter(nil, gte, nil, lte)
	if err != nil {
		return invalid()
	}
	return NewRange(key, r)
}

func dateBound(name string, ext schema.Extension, key, value string) (Condition, error) {
	if value == "" {
		return Condition{}, domain.BadRequest("Empty value specified for field: %s", key)
	}
	start, end, err := ParseDate(value)
	if err != nil {
		return Condition{}, domain.BadRequest("Invalid date specified for field %s: %s", key, value)
	}

	var r Range
	if ext == schema.After {
		r, err = NewRangeFilter(nil, &start, nil, nil)
	} else {
		r, err = NewRangeFilter(nil, nil, &end, nil)
	}
	if err != nil {
		return Condition{}, err
	}
	return NewRange(name, r)
}

func (b *Builder) geoCondition(res resource.Resource, f field.Field, value string, p params.Params) (Condition, error) {
	invalid := func() (Condition, error) {
		return Condition{}, domain.BadRequest("Invalid coordinates specified for field %s: %s", f.Name(), value)
	}

	latText, lngText, ok := strings.Cut(value, ",")
	if !ok {
		return invalid()
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return invalid()
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return invalid()
	}

	distKey := schema.GeoDistanceParam(f)
	distance := DefaultDistance
	if _, _, known := b.schema.Extension(res, distKey); known && p.Has(distKey) {
		distance = p.Get(distKey)
	}
	radius, unit, ok := facet.ParseDistance(distance)
	if !ok {
		return Condition{}, domain.BadRequest("Invalid distance specified for field %s: %s", distKey, distance)
	}

	g, err := NewGeoFilter(lat, lng, radius, unit)
	if err != nil {
		return invalid()
	}
	return NewGeo(f.Name(), g)
}

// ParseDate parses YYYY, YYYY-MM or YYYY-MM-DD into the half-open period
// [start, end) in epoch seconds (UTC).
func ParseDate(value string) (float64, float64, error) {
	layouts := []struct {
		layout string
		next   func(time.Time) time.Time
	}{
		{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
		{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
		{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
	}

	var lastErr error
	for _, l := range layouts {
		if len(value) != len(l.layout) {
			continue
		}
		start, err := time.ParseInLocation(l.layout, value, time.UTC)
		if err != nil {
			lastErr = err
			continue
		}
		return float64(start.Unix()), float64(l.next(start).Unix()), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("unsupported date format %q", value)
	}
	return 0, 0, lastErr
}
