package filter

import "fmt"

// MaxConditions is the maximum number of filter conditions per request.
const MaxConditions = 32

// Condition is a single filter clause: a tag match, a numeric range or a geo radius.
type Condition struct {
	key       string
	others    []string
	match     []string
	rangeExpr *Range
	geo       *Geo
}

// NewMatch creates an exact tag match condition. Any of the values matches.
func NewMatch(key string, values ...string) (Condition, error) {
	return NewMatchAny([]string{key}, values...)
}

// NewMatchAny creates a tag match spanning several fields. A document matches
// when any of the fields holds any of the values.
func NewMatchAny(keys []string, values ...string) (Condition, error) {
	if len(keys) == 0 {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	for _, k := range keys {
		if k == "" {
			return Condition{}, fmt.Errorf("filter key is required")
		}
	}
	key := keys[0]
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty match value for key %q", key)
		}
	}
	c := Condition{key: key, match: values}
	if len(keys) > 1 {
		c.others = append([]string(nil), keys[1:]...)
	}
	return c, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// NewGeo creates a geo radius condition.
func NewGeo(key string, g Geo) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, geo: &g}, nil
}

// Key returns the field name. A match spanning several fields reports the first.
func (c Condition) Key() string { return c.key }

// Keys returns every field the condition applies to.
func (c Condition) Keys() []string {
	return append([]string{c.key}, c.others...)
}

// Match returns the accepted tag values.
func (c Condition) Match() []string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// Geo returns the geo radius expression.
func (c Condition) Geo() *Geo { return c.geo }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return len(c.match) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// IsGeo reports whether this is a geo radius condition.
func (c Condition) IsGeo() bool { return c.geo != nil }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Geo is a radius around a point.
type Geo struct {
	lat    float64
	lng    float64
	radius float64
	unit   string
}

// NewGeoFilter validates and creates a Geo.
func NewGeoFilter(lat, lng, radius float64, unit string) (Geo, error) {
	if lat < -90 || lat > 90 {
		return Geo{}, fmt.Errorf("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return Geo{}, fmt.Errorf("longitude %v out of range", lng)
	}
	if radius <= 0 {
		return Geo{}, fmt.Errorf("radius must be positive")
	}
	if unit == "" {
		return Geo{}, fmt.Errorf("radius unit is required")
	}
	return Geo{lat: lat, lng: lng, radius: radius, unit: unit}, nil
}

// Lat returns the latitude of the centre.
func (g Geo) Lat() float64 { return g.lat }

// Lng returns the longitude of the centre.
func (g Geo) Lng() float64 { return g.lng }

// Radius returns the radius in Unit.
func (g Geo) Radius() float64 { return g.radius }

// Unit returns the radius unit (mi, km, m, yd, ft).
func (g Geo) Unit() string { return g.unit }
