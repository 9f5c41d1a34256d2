package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/search/facet"
	"github.com/dpla/platform-search/internal/domain/search/filter"
	"github.com/dpla/platform-search/internal/domain/search/query"
)

// aggregateLimit caps the groups returned by histogram, range and geo aggregations.
const aggregateLimit = 10000

// unitMeters converts distance units to meters.
var unitMeters = map[string]float64{
	"m":  1,
	"km": 1000,
	"mi": 1609.344,
	"yd": 0.9144,
	"ft": 0.3048,
}

// Search runs FT.SEARCH and one FT.AGGREGATE per facet in a single DoMulti round-trip.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	queryStr := buildQuery(q.Clauses, q.Filters)

	cmds := make(rueidis.Commands, 0, 1+len(q.Facets))
	cmds = append(cmds, s.b().Arbitrary("FT.SEARCH").Args(searchArgs(q, queryStr)...).Build())
	for _, spec := range q.Facets {
		args, err := aggregateArgs(q.IndexName, queryStr, spec)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build())
	}

	results := s.client.DoMulti(ctx, cmds...)

	raw, err := results[0].ToArray()
	if err != nil {
		return nil, wrapErr(db.OpSearch, err)
	}
	out, err := parseSearchResult(raw)
	if err != nil {
		return nil, err
	}

	for i, spec := range q.Facets {
		rows, err := results[i+1].ToArray()
		if err != nil {
			return nil, wrapErr(db.OpAggregate, fmt.Errorf("facet %s: %w", spec.Name, err))
		}
		out.Facets = append(out.Facets, db.FacetResult{
			Name:    spec.Name,
			Buckets: parseAggregateRows(rows, groupKey(spec)),
		})
	}

	return out, nil
}

func searchArgs(q *db.SearchQuery, queryStr string) []string {
	args := []string{q.IndexName, queryStr, "WITHSCORES"}
	if q.Sort != nil {
		order := "ASC"
		if q.Sort.Desc {
			order = "DESC"
		}
		args = append(args, "SORTBY", db.Attr(q.Sort.Field), order)
	}
	return append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
}

// --- Query building ---

// buildQuery combines full-text clauses and filter conditions into one
// intersection. An empty request matches every document.
func buildQuery(clauses []query.Clause, conds []filter.Condition) string {
	parts := make([]string, 0, len(clauses)+len(conds))
	for _, c := range clauses {
		parts = append(parts, buildClause(c))
	}
	for _, c := range conds {
		if part := buildCondition(c); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildClause(c query.Clause) string {
	text := "(" + escapeQuery(c.Text()) + ")"
	if !c.IsFielded() {
		return text
	}
	attrs := make([]string, len(c.Fields()))
	for i, f := range c.Fields() {
		attrs[i] = db.Attr(f)
	}
	return "@" + strings.Join(attrs, "|") + ":" + text
}

func buildCondition(cond filter.Condition) string {
	switch {
	case cond.IsMatch():
		keys := cond.Keys()
		if len(keys) == 1 {
			return buildTagFilter(keys[0], cond.Match())
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = buildTagFilter(k, cond.Match())
		}
		return "(" + strings.Join(parts, "|") + ")"
	case cond.IsRange():
		return buildNumericFilter(cond.Key(), *cond.Range())
	case cond.IsGeo():
		return buildGeoFilter(cond.Key(), *cond.Geo())
	}
	return ""
}

func buildTagFilter(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", db.Attr(key), strings.Join(escaped, "|"))
}

func buildNumericFilter(key string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT() != nil {
		minBound = "(" + formatFloat(*r.GT())
	} else if r.GTE() != nil {
		minBound = formatFloat(*r.GTE())
	}

	if r.LT() != nil {
		maxBound = "(" + formatFloat(*r.LT())
	} else if r.LTE() != nil {
		maxBound = formatFloat(*r.LTE())
	}

	return fmt.Sprintf("@%s:[%s %s]", db.Attr(key), minBound, maxBound)
}

// buildGeoFilter emits the radius in meters; the engine has no yard unit.
func buildGeoFilter(key string, g filter.Geo) string {
	meters := g.Radius() * unitMeters[g.Unit()]
	return fmt.Sprintf("@%s:[%s %s %s m]",
		db.Attr(key), formatFloat(g.Lng()), formatFloat(g.Lat()), formatFloat(meters))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// --- Facet aggregations ---

func groupKey(spec facet.Spec) string {
	if spec.Kind == facet.Terms {
		return db.Attr(spec.Field)
	}
	return "key"
}

// aggregateArgs compiles one facet into FT.AGGREGATE arguments over the search query.
// Histogram, range and geo facets only aggregate documents holding a value.
func aggregateArgs(index, queryStr string, spec facet.Spec) ([]string, error) {
	attr := db.Attr(spec.Field)
	p := spec.Params

	switch spec.Kind {
	case facet.Terms:
		size := p.Size
		if size <= 0 {
			size = facet.TermsSize
		}
		return []string{
			index, queryStr,
			"GROUPBY", "1", "@" + attr,
			"REDUCE", "COUNT", "0", "AS", "count",
			"SORTBY", "2", "@count", "DESC", "MAX", strconv.Itoa(size),
			"DIALECT", "2",
		}, nil

	case facet.DateHistogram:
		fn := p.Interval
		if _, ok := histogramFuncs[fn]; !ok {
			return nil, fmt.Errorf("unsupported histogram interval %q", p.Interval)
		}
		args := []string{
			index, restrict(queryStr, "@"+attr+":[-inf +inf]"),
			"LOAD", "1", "@" + attr,
			"APPLY", fn + "(@" + attr + ")", "AS", "key",
			"GROUPBY", "1", "@key",
			"REDUCE", "COUNT", "0", "AS", "count",
		}
		if p.MinDocCount > 1 {
			args = append(args, "FILTER", "@count>="+strconv.Itoa(p.MinDocCount))
		}
		return append(args,
			"SORTBY", "2", "@key", "DESC",
			"LIMIT", "0", strconv.Itoa(aggregateLimit),
			"DIALECT", "2",
		), nil

	case facet.Range:
		if p.Width <= 0 {
			return nil, fmt.Errorf("range facet %s requires a width", spec.Name)
		}
		width := formatFloat(p.Width)
		args := []string{
			index, restrict(queryStr, "@"+attr+":[-inf +inf]"),
			"LOAD", "1", "@" + attr,
			"APPLY", "floor(year(@" + attr + ")/" + width + ")*" + width, "AS", "key",
			"GROUPBY", "1", "@key",
			"REDUCE", "COUNT", "0", "AS", "count",
		}
		if p.MinDocCount > 1 {
			args = append(args, "FILTER", "@count>="+strconv.Itoa(p.MinDocCount))
		}
		return append(args,
			"LIMIT", "0", strconv.Itoa(aggregateLimit),
			"DIALECT", "2",
		), nil

	case facet.GeoDistance:
		perUnit, ok := unitMeters[p.Unit]
		if !ok || p.Width <= 0 {
			return nil, fmt.Errorf("geo facet %s requires a width and a known unit", spec.Name)
		}
		lng, lat := formatFloat(p.Lng), formatFloat(p.Lat)
		return []string{
			// A radius beyond half the earth's circumference keeps every located document.
			index, restrict(queryStr, "@"+attr+":["+lng+" "+lat+" 20100 km]"),
			"LOAD", "1", "@" + attr,
			"APPLY", "geodistance(@" + attr + "," + lng + "," + lat + ")", "AS", "dist",
			"APPLY", "floor(@dist/" + formatFloat(p.Width*perUnit) + ")", "AS", "key",
			"GROUPBY", "1", "@key",
			"REDUCE", "COUNT", "0", "AS", "count",
			"LIMIT", "0", strconv.Itoa(aggregateLimit),
			"DIALECT", "2",
		}, nil
	}

	return nil, fmt.Errorf("unsupported facet kind %q", spec.Kind)
}

// histogramFuncs name the engine functions truncating an epoch-seconds attribute.
// year() yields the year number; the others yield the epoch seconds at the
// start of the period.
var histogramFuncs = map[string]struct{}{"year": {}, "month": {}, "day": {}, "hour": {}, "minute": {}}

func restrict(queryStr, clause string) string {
	if queryStr == "*" {
		return clause
	}
	return queryStr + " " + clause
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseAggregateRows reads [total, row1, row2, ...] where each row is a flat
// name/value list.
func parseAggregateRows(raw []rueidis.RedisMessage, keyName string) []db.Bucket {
	if len(raw) < 2 {
		return nil
	}
	buckets := make([]db.Bucket, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		pairs, err := msg.ToArray()
		if err != nil {
			continue
		}
		row := parseFieldPairs(pairs)
		key, ok := row[keyName]
		if !ok || key == "" {
			continue
		}
		count, err := strconv.Atoi(row["count"])
		if err != nil {
			continue
		}
		buckets = append(buckets, db.Bucket{Key: key, Count: count})
	}
	return buckets
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
)
