package search

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/search/facet"
)

// shapeFacets converts engine buckets into the client facet blocks, keyed by display name.
func shapeFacets(specs []facet.Spec, results []db.FacetResult) map[string]any {
	if len(specs) == 0 {
		return nil
	}
	byName := make(map[string][]db.Bucket, len(results))
	for _, fr := range results {
		byName[fr.Name] = fr.Buckets
	}

	out := make(map[string]any, len(specs))
	for _, spec := range specs {
		buckets := byName[spec.Name]
		switch spec.Kind {
		case facet.DateHistogram:
			out[spec.Name] = histogramBlock(spec, buckets)
		case facet.Range:
			out[spec.Name] = rangeBlock(spec, buckets)
		case facet.GeoDistance:
			out[spec.Name] = geoBlock(spec, buckets)
		default:
			out[spec.Name] = termsBlock(buckets)
		}
	}
	return out
}

func termsBlock(buckets []db.Bucket) map[string]any {
	terms := make([]map[string]any, 0, len(buckets))
	for _, b := range buckets {
		terms = append(terms, map[string]any{"term": b.Key, "count": b.Count})
	}
	return map[string]any{"_type": string(facet.Terms), "terms": terms}
}

// histogramBlock reports each period start in epoch milliseconds.
func histogramBlock(spec facet.Spec, buckets []db.Bucket) map[string]any {
	entries := make([]map[string]any, 0, len(buckets))
	for _, b := range buckets {
		key, err := strconv.ParseFloat(b.Key, 64)
		if err != nil {
			continue
		}
		var ms int64
		if spec.Params.Interval == facet.Year {
			ms = time.Date(int(key), time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
		} else {
			ms = int64(key) * 1000
		}
		entries = append(entries, map[string]any{"time": ms, "count": b.Count})
	}
	return map[string]any{"_type": string(facet.DateHistogram), "entries": entries}
}

// rangeBlock maps truncated years onto the declared ranges. Only ranges
// holding at least MinDocCount documents are reported, latest first.
func rangeBlock(spec facet.Spec, buckets []db.Bucket) map[string]any {
	minDocs := max(spec.Params.MinDocCount, 1)

	counts := make(map[float64]int, len(buckets))
	for _, b := range buckets {
		key, err := strconv.ParseFloat(b.Key, 64)
		if err != nil {
			continue
		}
		counts[key] += b.Count
	}

	ranges := make([]map[string]any, 0, len(counts))
	for _, r := range spec.Params.Ranges {
		if r.From == nil {
			continue
		}
		if n := counts[*r.From]; n >= minDocs {
			ranges = append(ranges, rangeEntry(r, n))
		}
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i]["from"].(float64) > ranges[j]["from"].(float64)
	})
	return map[string]any{"_type": string(facet.Range), "ranges": ranges}
}

// geoBlock reports every distance range in order. Bucket ordinals past the
// bounded ranges fold into the open-ended last one.
func geoBlock(spec facet.Spec, buckets []db.Bucket) map[string]any {
	declared := spec.Params.Ranges
	counts := make([]int, len(declared))
	for _, b := range buckets {
		key, err := strconv.ParseFloat(b.Key, 64)
		if err != nil || key < 0 || len(declared) == 0 {
			continue
		}
		i := int(math.Min(key, float64(len(declared)-1)))
		counts[i] += b.Count
	}

	ranges := make([]map[string]any, 0, len(declared))
	for i, r := range declared {
		ranges = append(ranges, rangeEntry(r, counts[i]))
	}
	return map[string]any{"_type": string(facet.GeoDistance), "ranges": ranges}
}

func rangeEntry(r facet.Span, count int) map[string]any {
	e := map[string]any{"count": count}
	if r.From != nil {
		e["from"] = *r.From
	}
	if r.To != nil {
		e["to"] = *r.To
	}
	return e
}
