package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/schema/field"
	"github.com/dpla/platform-search/internal/domain/search/filter"
)

// derive computes the values indexed from the derived member: dates as epoch
// seconds and points as "lng,lat", always as arrays. Unparseable values are skipped.
func derive(doc map[string]any, fields []field.Field) map[string]any {
	out := make(map[string]any)
	for _, root := range fields {
		root.Walk(func(f field.Field) {
			var convert func(any) (any, bool)
			switch {
			case f.IsDate():
				convert = epochSeconds
			case f.IsGeoPoint():
				convert = lngLat
			default:
				return
			}

			var values []any
			for _, v := range selectPath(doc, f.Path()) {
				if c, ok := convert(v); ok {
					values = append(values, c)
				}
			}
			if len(values) > 0 {
				out[db.Attr(f.Name())] = values
			}
		})
	}
	return out
}

// selectPath evaluates a JSON path made of ".member" and "[*]" steps.
func selectPath(doc any, path string) []any {
	nodes := []any{doc}
	rest := strings.TrimPrefix(path, "$")
	for rest != "" {
		var next []any
		switch {
		case strings.HasPrefix(rest, "[*]"):
			rest = rest[3:]
			for _, n := range nodes {
				if list, ok := n.([]any); ok {
					next = append(next, list...)
				}
			}
		case strings.HasPrefix(rest, "."):
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			name := rest[:end]
			rest = rest[end:]
			for _, n := range nodes {
				if m, ok := n.(map[string]any); ok {
					if v, ok := m[name]; ok && v != nil {
						next = append(next, v)
					}
				}
			}
		default:
			return nil
		}
		nodes = next
	}

	// A trailing array holds several values of one field.
	var out []any
	for _, n := range nodes {
		if list, ok := n.([]any); ok {
			out = append(out, list...)
		} else {
			out = append(out, n)
		}
	}
	return out
}

// epochSeconds reads a date string or the "begin" of a date object.
func epochSeconds(v any) (any, bool) {
	switch d := v.(type) {
	case string:
		if start, _, err := filter.ParseDate(d); err == nil {
			return start, true
		}
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return float64(t.Unix()), true
		}
	case map[string]any:
		if begin, ok := d["begin"]; ok {
			return epochSeconds(begin)
		}
	}
	return nil, false
}

// lngLat reads "lat, lng" strings and {"lat", "lon"} objects.
func lngLat(v any) (any, bool) {
	var lat, lng float64
	switch p := v.(type) {
	case string:
		latText, lngText, ok := strings.Cut(p, ",")
		if !ok {
			return nil, false
		}
		var err error
		if lat, err = strconv.ParseFloat(strings.TrimSpace(latText), 64); err != nil {
			return nil, false
		}
		if lng, err = strconv.ParseFloat(strings.TrimSpace(lngText), 64); err != nil {
			return nil, false
		}
	case map[string]any:
		var ok bool
		if lat, ok = p["lat"].(float64); !ok {
			return nil, false
		}
		if lng, ok = p["lon"].(float64); !ok {
			return nil, false
		}
	default:
		return nil, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, false
	}
	return strconv.FormatFloat(lng, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64), true
}
