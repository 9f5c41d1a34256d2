package facet

import (
	"strconv"
	"strings"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// Facet parameter constants.
const (
	TermsSize       = 50
	HistogramMinDoc = 2
	// GeoBuckets is the number of bounded distance buckets; one open-ended bucket follows.
	GeoBuckets  = 21
	DefaultUnit = "mi"
	// RangeFloorYear and RangeCeilYear bound the calendar-aligned century/decade buckets.
	RangeFloorYear = 1000
	RangeCeilYear  = 2100
)

var geoUnits = map[string]struct{}{"mi": {}, "km": {}, "m": {}, "yd": {}, "ft": {}}

var histogramIntervals = map[string]struct{}{"year": {}, "month": {}, "day": {}, "hour": {}, "minute": {}}

var rangeWidths = map[string]int{Century: 100, Decade: 10}

// BuildSpec constructs the engine parameters for a resolved field.
func BuildSpec(f field.Field) (Spec, error) {
	kind := TypeOf(f)
	spec := Spec{Name: DisplayName(f), Kind: kind, Field: FieldName(f)}

	switch kind {
	case GeoDistance:
		spec.Field = f.Name()
		p, err := geoParams(f)
		if err != nil {
			return Spec{}, err
		}
		spec.Params = p
	case DateHistogram:
		interval := f.FacetModifier()
		if interval == "" {
			interval = Year
		}
		if _, ok := histogramIntervals[interval]; !ok {
			return Spec{}, domain.BadRequest("Invalid date_histogram interval for %s: %s", f.Name(), interval)
		}
		spec.Params = Params{
			Interval:    interval,
			Order:       Order{Key: OrderByKey, Direction: "desc"},
			MinDocCount: HistogramMinDoc,
		}
	case Range:
		width := rangeWidths[f.FacetModifier()]
		spec.Params = Params{
			Interval:    f.FacetModifier(),
			Order:       Order{Key: OrderByKey, Direction: "desc"},
			MinDocCount: HistogramMinDoc,
			Width:       float64(width),
			Ranges:      calendarRanges(width),
		}
	default:
		spec.Params = Params{
			Size:  TermsSize,
			Order: Order{Key: OrderByCount, Direction: "desc"},
		}
	}

	return spec, nil
}

// geoParams parses "<lat>:<lng>:<width><unit>".
func geoParams(f field.Field) (Params, error) {
	modifier := f.FacetModifier()
	invalid := func() (Params, error) {
		return Params{}, domain.BadRequest("Invalid geo_distance facet modifier for %s: %q", f.Name(), modifier)
	}

	parts := strings.Split(modifier, ":")
	if len(parts) != 3 {
		return invalid()
	}
	latText, lngText := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil || lat < -90 || lat > 90 {
		return invalid()
	}
	lng, err := strconv.ParseFloat(lngText, 64)
	if err != nil || lng < -180 || lng > 180 {
		return invalid()
	}

	width, unit, ok := splitDistance(strings.TrimSpace(parts[2]))
	if !ok || width <= 0 {
		return invalid()
	}
	if unit == "" {
		unit = DefaultUnit
	}
	if _, ok := geoUnits[unit]; !ok {
		return invalid()
	}

	return Params{
		Origin: latText + ", " + lngText,
		Lat:    lat,
		Lng:    lng,
		Unit:   unit,
		Width:  width,
		Ranges: distanceRanges(width),
	}, nil
}

// splitDistance splits "20mi" into 20 and "mi".
func splitDistance(s string) (float64, string, bool) {
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i < 0 {
		i = len(s)
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", false
	}
	return n, strings.ToLower(s[i:]), true
}

// ParseDistance parses a distance such as "20mi" or "5" (unit defaults to miles).
func ParseDistance(s string) (float64, string, bool) {
	n, unit, ok := splitDistance(strings.TrimSpace(s))
	if !ok || n <= 0 {
		return 0, "", false
	}
	if unit == "" {
		unit = DefaultUnit
	}
	if _, known := geoUnits[unit]; !known {
		return 0, "", false
	}
	return n, unit, true
}

func distanceRanges(width float64) []Span {
	ranges := make([]Span, 0, GeoBuckets+1)
	ranges = append(ranges, Span{To: ptr(width)})
	for i := 1; i < GeoBuckets; i++ {
		ranges = append(ranges, Span{From: ptr(float64(i) * width), To: ptr(float64(i+1) * width)})
	}
	return append(ranges, Span{From: ptr(float64(GeoBuckets) * width)})
}

func calendarRanges(width int) []Span {
	ranges := make([]Span, 0, (RangeCeilYear-RangeFloorYear)/width)
	for y := RangeFloorYear; y < RangeCeilYear; y += width {
		ranges = append(ranges, Span{From: ptr(float64(y)), To: ptr(float64(y + width))})
	}
	return ranges
}

func ptr(v float64) *float64 { return &v }
