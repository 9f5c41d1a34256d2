package filter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
	"github.com/dpla/platform-search/internal/domain/schema/field"
	"github.com/dpla/platform-search/internal/domain/search/params"
)

type fakeTarget struct {
	res   resource.Resource
	conds []Condition
}

func (f *fakeTarget) Resource() resource.Resource { return f.res }
func (f *fakeTarget) AddFilter(c Condition)       { f.conds = append(f.conds, c) }

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	r, err := schema.Default()
	require.NoError(t, err)
	return NewBuilder(r)
}

func epoch(y int, m time.Month, d int) float64 {
	return float64(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix())
}

func build(t *testing.T, res resource.Resource, p params.Params) ([]Condition, error) {
	t.Helper()
	target := &fakeTarget{res: res}
	ok, err := newBuilder(t).BuildAll(target, p)
	if err != nil {
		assert.False(t, ok)
		assert.Empty(t, target.conds)
		return nil, err
	}
	assert.Equal(t, len(target.conds) > 0, ok)
	return target.conds, nil
}

func TestBuildAll_SkipsQueryOwnedAndBaseParams(t *testing.T) {
	conds, err := build(t, resource.Items, params.Params{"q": "x", "title": "lincoln", "page": "2", "facets": "format"})
	require.NoError(t, err)
	assert.Empty(t, conds)
}

func TestBuildAll_Keyword(t *testing.T) {
	conds, err := build(t, resource.Items, params.Params{"format": "Photograph, Text", "spatial.state": "Massachusetts"})
	require.NoError(t, err)
	require.Len(t, conds, 2)

	assert.Equal(t, "format", conds[0].Key())
	assert.Equal(t, []string{"Photograph", "Text"}, conds[0].Match())
	assert.Equal(t, "spatial.state", conds[1].Key())
	assert.Equal(t, []string{"Massachusetts"}, conds[1].Match())
}

func TestBuildAll_KeywordObject(t *testing.T) {
	conds, err := build(t, resource.Items, params.Params{"spatial": "Boston", "language": "English, fre"})
	require.NoError(t, err)
	require.Len(t, conds, 2)

	assert.Equal(t, []string{"language.name", "language.iso639"}, conds[0].Keys())
	assert.Equal(t, []string{"English", "fre"}, conds[0].Match())
	assert.Equal(t, []string{"spatial.name", "spatial.city", "spatial.state", "spatial.country"}, conds[1].Keys())
	assert.Equal(t, []string{"Boston"}, conds[1].Match())
}

func TestBuildAll_ObjectWithoutKeywords(t *testing.T) {
	point, err := field.New("place.point", field.GeoPoint, field.Options{})
	require.NoError(t, err)
	place, err := field.New("place", field.Object, field.Options{Subfields: []field.Field{point}})
	require.NoError(t, err)
	r, err := schema.New(map[resource.Resource][]field.Field{resource.Items: {place}})
	require.NoError(t, err)

	target := &fakeTarget{res: resource.Items}
	_, err = NewBuilder(r).BuildAll(target, params.Params{"place": "boston"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Equal(t, "Field cannot be queried: place", err.Error())
}

func TestBuildAll_Numeric(t *testing.T) {
	tests := []struct {
		value    string
		gte, lte *float64
	}{
		{"5", floatPtr(5), floatPtr(5)},
		{"1..10", floatPtr(1), floatPtr(10)},
		{"..10", nil, floatPtr(10)},
		{"2.5..", floatPtr(2.5), nil},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			conds, err := build(t, resource.Items, params.Params{"extent": tt.value})
			require.NoError(t, err)
			require.Len(t, conds, 1)
			r := conds[0].Range()
			require.NotNil(t, r)
			assert.Equal(t, tt.gte, r.GTE())
			assert.Equal(t, tt.lte, r.LTE())
		})
	}

	for _, bad := range []string{"abc", "..", "1..x"} {
		_, err := build(t, resource.Items, params.Params{"extent": bad})
		assert.True(t, errors.Is(err, domain.ErrBadRequest), bad)
	}
}

func TestBuildAll_DatePeriods(t *testing.T) {
	tests := []struct {
		value      string
		start, end float64
	}{
		{"1865", epoch(1865, 1, 1), epoch(1866, 1, 1)},
		{"1865-04", epoch(1865, 4, 1), epoch(1865, 5, 1)},
		{"1865-12", epoch(1865, 12, 1), epoch(1866, 1, 1)},
		{"1865-04-14", epoch(1865, 4, 14), epoch(1865, 4, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			conds, err := build(t, resource.Items, params.Params{"date": tt.value})
			require.NoError(t, err)
			require.Len(t, conds, 1)
			r := conds[0].Range()
			require.NotNil(t, r)
			assert.Equal(t, tt.start, *r.GTE())
			assert.Equal(t, tt.end, *r.LT())
			assert.Nil(t, r.LTE())
		})
	}
}

func TestBuildAll_DateBounds(t *testing.T) {
	conds, err := build(t, resource.Items, params.Params{"date.after": "1860", "date.before": "1865-04"})
	require.NoError(t, err)
	require.Len(t, conds, 2)

	after, before := conds[0], conds[1]
	assert.Equal(t, "date", after.Key())
	assert.Equal(t, epoch(1860, 1, 1), *after.Range().GTE())
	assert.Nil(t, after.Range().LT())

	assert.Equal(t, "date", before.Key())
	assert.Equal(t, epoch(1865, 5, 1), *before.Range().LT(), "before includes the named period")
	assert.Nil(t, before.Range().GTE())

	conds, err = build(t, resource.Items, params.Params{"temporal.begin.after": "1900-01-01"})
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, "temporal.begin", conds[0].Key())
}

func TestBuildAll_InvalidDate(t *testing.T) {
	for _, bad := range []string{"18", "1865-13", "April 1865", "1865-04-31"} {
		_, err := build(t, resource.Items, params.Params{"date.before": bad})
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, domain.ErrBadRequest))
	}
}

func TestBuildAll_Geo(t *testing.T) {
	conds, err := build(t, resource.Items, params.Params{"spatial.coordinates": "42.3, -71.1"})
	require.NoError(t, err)
	require.Len(t, conds, 1)
	g := conds[0].Geo()
	require.NotNil(t, g)
	assert.Equal(t, "spatial.coordinates", conds[0].Key())
	assert.Equal(t, 42.3, g.Lat())
	assert.Equal(t, -71.1, g.Lng())
	assert.Equal(t, 20.0, g.Radius())
	assert.Equal(t, "mi", g.Unit())

	conds, err = build(t, resource.Items, params.Params{"spatial.coordinates": "42.3,-71.1", "spatial.distance": "5km"})
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, 5.0, conds[0].Geo().Radius())
	assert.Equal(t, "km", conds[0].Geo().Unit())
}

func TestBuildAll_GeoErrors(t *testing.T) {
	tests := map[string]params.Params{
		"distance without coordinates": {"spatial.distance": "5km"},
		"bad coordinates":              {"spatial.coordinates": "boston"},
		"out of range":                 {"spatial.coordinates": "95,10"},
		"bad distance":                 {"spatial.coordinates": "42,-71", "spatial.distance": "far"},
	}
	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := build(t, resource.Items, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrBadRequest))
		})
	}
}

func TestBuildAll_FieldOfOtherResource(t *testing.T) {
	_, err := build(t, resource.Collections, params.Params{"format": "Text", "date.before": "1900"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Equal(t, "Invalid field(s) specified in query: date.before,format", err.Error())
}

func TestBuildAll_EmptyValue(t *testing.T) {
	_, err := build(t, resource.Items, params.Params{"format": " "})
	require.Error(t, err)
	assert.Equal(t, "Empty value specified for field: format", err.Error())
}

func TestBuildAll_TooManyConditions(t *testing.T) {
	var fields []field.Field
	p := params.Params{}
	for i := 0; i <= MaxConditions; i++ {
		name := fmt.Sprintf("k%d", i)
		f, err := field.New(name, field.Keyword, field.Options{})
		require.NoError(t, err)
		fields = append(fields, f)
		p[name] = "x"
	}
	r, err := schema.New(map[resource.Resource][]field.Field{resource.Items: fields})
	require.NoError(t, err)

	target := &fakeTarget{res: resource.Items}
	_, err = NewBuilder(r).BuildAll(target, p)
	require.Error(t, err)
	assert.Equal(t, "Too many filter conditions (max 32)", err.Error())
	assert.Empty(t, target.conds)

	delete(p, "k0")
	ok, err := NewBuilder(r).BuildAll(target, p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, target.conds, MaxConditions)
}
