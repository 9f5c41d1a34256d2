package facet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

func registry(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.Default()
	require.NoError(t, err)
	return r
}

func mustField(t *testing.T, name string, kind field.Kind, opts field.Options) field.Field {
	t.Helper()
	f, err := field.New(name, kind, opts)
	require.NoError(t, err)
	return f
}

type fakeTarget struct {
	res      resource.Resource
	specs    []Spec
	matchAll bool
}

func (f *fakeTarget) Resource() resource.Resource { return f.res }
func (f *fakeTarget) AddFacet(s Spec)             { f.specs = append(f.specs, s) }
func (f *fakeTarget) SetMatchAll()                { f.matchAll = true }

func TestTypeOf(t *testing.T) {
	geo := mustField(t, "loc", field.GeoPoint, field.Options{})
	date := mustField(t, "created", field.Date, field.Options{})
	multi := mustField(t, "date", field.Date, field.Options{MultiField: true})
	text := mustField(t, "title", field.Text, field.Options{NotAnalyzed: true})

	tests := []struct {
		name string
		f    field.Field
		want Kind
	}{
		{"geo", geo, GeoDistance},
		{"geo with interval modifier", geo.WithModifier("century"), GeoDistance},
		{"date no modifier", date, DateHistogram},
		{"date year", date.WithModifier("year"), DateHistogram},
		{"date month", date.WithModifier("month"), DateHistogram},
		{"date other modifier", date.WithModifier("day"), DateHistogram},
		{"date century", date.WithModifier("century"), Range},
		{"date decade", date.WithModifier("decade"), Range},
		{"multi-field date", multi, DateHistogram},
		{"multi-field date decade", multi.WithModifier("decade"), Range},
		{"keyword", mustField(t, "format", field.Keyword, field.Options{}), Terms},
		{"numeric", mustField(t, "extent", field.Numeric, field.Options{}), Terms},
		{"text", text, Terms},
		{"text with interval modifier", text.WithModifier("year"), Terms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.f))
		})
	}
}

func TestParseName(t *testing.T) {
	r := registry(t)
	tests := []struct {
		token        string
		wantName     string
		wantModifier string
	}{
		{"spatial.coordinates", "spatial.coordinates", ""},
		{"spatial.coordinates:42.3:-71:20mi", "spatial.coordinates", "42.3:-71:20mi"},
		{"date.year", "date", "year"},
		{"date.century", "date", "century"},
		{"temporal.begin.year", "temporal.begin", "year"},
		{"temporal.begin.month", "temporal.begin", "month"},
		{"format", "format", ""},
		{"date:day", "date", "day"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			f, ok := ParseName(r, resource.Items, tt.token)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, f.Name())
			assert.Equal(t, tt.wantModifier, f.FacetModifier())
		})
	}

	_, ok := ParseName(r, resource.Items, "nope.year")
	assert.False(t, ok)
	_, ok = ParseName(r, resource.Collections, "spatial.coordinates")
	assert.False(t, ok)
}

func TestFieldAndDisplayName(t *testing.T) {
	title := mustField(t, "title", field.Text, field.Options{NotAnalyzed: true})
	date := mustField(t, "date", field.Date, field.Options{MultiField: true})
	format := mustField(t, "format", field.Keyword, field.Options{})

	assert.Equal(t, "title.not_analyzed", FieldName(title))
	assert.Equal(t, "title", DisplayName(title))
	assert.Equal(t, "format", FieldName(format))
	assert.Equal(t, "date", FieldName(date.WithModifier("year")))
	assert.Equal(t, "date.year", DisplayName(date.WithModifier("year")))
	assert.Equal(t, "date", DisplayName(date))
}

func TestBuildSpec_Terms(t *testing.T) {
	title := mustField(t, "title", field.Text, field.Options{NotAnalyzed: true})
	spec, err := BuildSpec(title)
	require.NoError(t, err)
	assert.Equal(t, Terms, spec.Kind)
	assert.Equal(t, "title", spec.Name)
	assert.Equal(t, "title.not_analyzed", spec.Field)
	assert.Equal(t, Params{Size: 50, Order: Order{Key: OrderByCount, Direction: "desc"}}, spec.Params)

	format := mustField(t, "format", field.Keyword, field.Options{})
	spec, err = BuildSpec(format)
	require.NoError(t, err)
	assert.Equal(t, "format", spec.Field)
	assert.Equal(t, 50, spec.Params.Size)
}

func TestBuildSpec_GeoDistance(t *testing.T) {
	geo := mustField(t, "spatial.coordinates", field.GeoPoint, field.Options{})
	spec, err := BuildSpec(geo.WithModifier("42:-71:10"))
	require.NoError(t, err)

	assert.Equal(t, GeoDistance, spec.Kind)
	assert.Equal(t, "spatial.coordinates", spec.Field)
	assert.Equal(t, "spatial.coordinates", spec.Name)
	assert.Equal(t, "42, -71", spec.Params.Origin)
	assert.Equal(t, "mi", spec.Params.Unit)
	assert.InDelta(t, 42.0, spec.Params.Lat, 1e-9)
	assert.InDelta(t, -71.0, spec.Params.Lng, 1e-9)

	ranges := spec.Params.Ranges
	require.Len(t, ranges, 22)
	assert.Nil(t, ranges[0].From)
	assert.Equal(t, 10.0, *ranges[0].To)
	for i := 1; i <= 20; i++ {
		assert.Equal(t, float64(i*10), *ranges[i].From)
		assert.Equal(t, float64((i+1)*10), *ranges[i].To)
	}
	assert.Equal(t, 210.0, *ranges[21].From)
	assert.Nil(t, ranges[21].To)
}

func TestBuildSpec_GeoDistanceUnits(t *testing.T) {
	geo := mustField(t, "spatial.coordinates", field.GeoPoint, field.Options{})
	spec, err := BuildSpec(geo.WithModifier("42.3:-71:20km"))
	require.NoError(t, err)
	assert.Equal(t, "km", spec.Params.Unit)
	assert.Equal(t, "42.3, -71", spec.Params.Origin)
	assert.Equal(t, 20.0, *spec.Params.Ranges[0].To)
}

func TestBuildSpec_GeoDistanceInvalid(t *testing.T) {
	geo := mustField(t, "spatial.coordinates", field.GeoPoint, field.Options{})
	for _, modifier := range []string{"", "42:-71", "42:-71:0", "91:-71:10", "42:-181:10", "x:-71:10", "42:-71:10parsecs", "42:-71:mi", "42:-71:-5"} {
		t.Run(modifier, func(t *testing.T) {
			_, err := BuildSpec(geo.WithModifier(modifier))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrBadRequest))
		})
	}
}

func TestBuildSpec_DateHistogram(t *testing.T) {
	date := mustField(t, "date", field.Date, field.Options{MultiField: true})

	spec, err := BuildSpec(date.WithModifier("month"))
	require.NoError(t, err)
	assert.Equal(t, DateHistogram, spec.Kind)
	assert.Equal(t, "date.month", spec.Name)
	assert.Equal(t, "date", spec.Field)
	assert.Equal(t, Params{Interval: "month", Order: Order{Key: OrderByKey, Direction: "desc"}, MinDocCount: 2}, spec.Params)

	spec, err = BuildSpec(date)
	require.NoError(t, err)
	assert.Equal(t, "year", spec.Params.Interval)
	assert.Equal(t, "date", spec.Name)

	_, err = BuildSpec(date.WithModifier("fortnight"))
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestBuildSpec_Range(t *testing.T) {
	date := mustField(t, "date", field.Date, field.Options{})

	spec, err := BuildSpec(date.WithModifier("century"))
	require.NoError(t, err)
	assert.Equal(t, Range, spec.Kind)
	assert.Equal(t, "date.century", spec.Name)
	assert.Equal(t, 100.0, spec.Params.Width)
	require.Len(t, spec.Params.Ranges, 11)
	assert.Equal(t, 1000.0, *spec.Params.Ranges[0].From)
	assert.Equal(t, 1100.0, *spec.Params.Ranges[0].To)
	assert.Equal(t, 2100.0, *spec.Params.Ranges[10].To)
	assert.Equal(t, Order{Key: OrderByKey, Direction: "desc"}, spec.Params.Order)
	assert.Equal(t, 2, spec.Params.MinDocCount)

	spec, err = BuildSpec(date.WithModifier("decade"))
	require.NoError(t, err)
	assert.Len(t, spec.Params.Ranges, 110)
	assert.Equal(t, 1990.0, *spec.Params.Ranges[99].From)
}

func TestExpand_ExcludesGeoSubfields(t *testing.T) {
	place := mustField(t, "place", field.Object, field.Options{Subfields: []field.Field{
		mustField(t, "place.name", field.Keyword, field.Options{}),
		mustField(t, "place.coordinates", field.GeoPoint, field.Options{}),
	}})
	r, err := schema.New(map[resource.Resource][]field.Field{resource.Items: {place}})
	require.NoError(t, err)

	b := NewBuilder(r)
	assert.Equal(t, []string{"place.name"}, b.Expand(resource.Items, []string{"place"}))
}

func TestExpand_DefaultSchema(t *testing.T) {
	b := NewBuilder(registry(t))

	got := b.Expand(resource.Items, []string{"spatial", "format", "id", "date.year", "nope", "format"})
	assert.Equal(t, []string{
		"spatial.name", "spatial.city", "spatial.state", "spatial.country",
		"format", "id", "date.year", "nope",
	}, got)

	assert.Equal(t, []string{"subject.name"}, b.Expand(resource.Items, []string{"subject"}))
}

func TestBuildAll(t *testing.T) {
	b := NewBuilder(registry(t))
	target := &fakeTarget{res: resource.Items}

	attached, err := b.BuildAll(target, "format, date.decade,spatial.coordinates:42.3:-71:20mi", true)
	require.NoError(t, err)
	assert.True(t, attached)
	assert.True(t, target.matchAll)

	require.Len(t, target.specs, 3)
	assert.Equal(t, "format", target.specs[0].Name)
	assert.Equal(t, "date.decade", target.specs[1].Name)
	assert.Equal(t, Range, target.specs[1].Kind)
	assert.Equal(t, GeoDistance, target.specs[2].Kind)
}

func TestBuildAll_NoMatchAllWithoutAllowEmpty(t *testing.T) {
	b := NewBuilder(registry(t))
	target := &fakeTarget{res: resource.Items}

	attached, err := b.BuildAll(target, "format", false)
	require.NoError(t, err)
	assert.True(t, attached)
	assert.False(t, target.matchAll)
}

func TestBuildAll_Empty(t *testing.T) {
	b := NewBuilder(registry(t))
	target := &fakeTarget{res: resource.Items}

	attached, err := b.BuildAll(target, " , ", true)
	require.NoError(t, err)
	assert.False(t, attached)
	assert.False(t, target.matchAll)
	assert.Empty(t, target.specs)
}

func TestBuildAll_Errors(t *testing.T) {
	b := NewBuilder(registry(t))
	tests := []struct {
		facets  string
		message string
	}{
		{"format,bogus", "Invalid field(s) specified in facets parameter: bogus"},
		{"id", "Non-facetable field specified in facets parameter: id"},
		{"description", "Non-facetable field specified in facets parameter: description"},
		{"spatial.coordinates", "Invalid geo_distance facet modifier for spatial.coordinates: \"\""},
	}
	for _, tt := range tests {
		t.Run(tt.facets, func(t *testing.T) {
			target := &fakeTarget{res: resource.Items}
			attached, err := b.BuildAll(target, tt.facets, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrBadRequest))
			assert.Equal(t, tt.message, err.Error())
			assert.False(t, attached)
			assert.Empty(t, target.specs, "no partial facets on error")
			assert.False(t, target.matchAll)
		})
	}
}

func TestParseDistance(t *testing.T) {
	n, unit, ok := ParseDistance("20mi")
	require.True(t, ok)
	assert.Equal(t, 20.0, n)
	assert.Equal(t, "mi", unit)

	n, unit, ok = ParseDistance("2.5")
	require.True(t, ok)
	assert.Equal(t, 2.5, n)
	assert.Equal(t, "mi", unit)

	for _, bad := range []string{"", "0mi", "abc", "10lightyears"} {
		_, _, ok := ParseDistance(bad)
		assert.False(t, ok, bad)
	}
}
