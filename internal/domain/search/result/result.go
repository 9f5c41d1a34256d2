package result

import (
	"regexp"
	"strings"
)

// ScoreKey is the document key that carries the relevance score of a hit.
const ScoreKey = "score"

// NotFoundError marks a fetch-by-id miss in a fetch response.
const NotFoundError = "not_found"

var idSeparator = regexp.MustCompile(`,\s*`)

// Hit is a single search hit.
type Hit struct {
	id     string
	score  float64
	source map[string]any
}

// NewHit creates a search hit.
func NewHit(id string, score float64, source map[string]any) Hit {
	return Hit{id: id, score: score, source: source}
}

// ID returns the document identifier.
func (h Hit) ID() string { return h.id }

// Score returns the relevance score.
func (h Hit) Score() float64 { return h.score }

// Source returns the stored document.
func (h Hit) Source() map[string]any { return h.source }

// Doc returns a copy of the stored document with the score merged in,
// overwriting any stored "score" key.
func (h Hit) Doc() map[string]any {
	doc := make(map[string]any, len(h.source)+1)
	for k, v := range h.source {
		doc[k] = v
	}
	doc[ScoreKey] = h.score
	return doc
}

// Raw is the engine response to one search request.
type Raw struct {
	Total  int
	Hits   []Hit
	Facets map[string]any
}

// Envelope is the client-facing search result.
type Envelope struct {
	Count  int              `json:"count"`
	Start  int              `json:"start"`
	Limit  int              `json:"limit"`
	Docs   []map[string]any `json:"docs"`
	Facets map[string]any   `json:"facets"`
}

// NewEnvelope reshapes a raw engine response. At most limit hits are kept.
func NewEnvelope(raw Raw, start, limit int) Envelope {
	hits := raw.Hits
	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	docs := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Doc())
	}
	facets := raw.Facets
	if facets == nil {
		facets = map[string]any{}
	}
	return Envelope{
		Count:  raw.Total,
		Start:  start,
		Limit:  limit,
		Docs:   docs,
		Facets: facets,
	}
}

// Fetch is the client-facing fetch-by-id result.
type Fetch struct {
	Count int              `json:"count"`
	Docs  []map[string]any `json:"docs"`
	found map[string]map[string]any
}

// NewFetch orders found documents by the requested ids and marks misses.
func NewFetch(ids []string, found map[string]map[string]any) Fetch {
	f := Fetch{
		Count: len(ids),
		Docs:  make([]map[string]any, 0, len(ids)),
		found: make(map[string]map[string]any, len(found)),
	}
	for _, id := range ids {
		doc, ok := found[id]
		if !ok {
			f.Docs = append(f.Docs, map[string]any{"id": id, "error": NotFoundError})
			continue
		}
		f.found[id] = doc
		f.Docs = append(f.Docs, doc)
	}
	return f
}

// Found returns the number of distinct requested ids that exist.
func (f Fetch) Found() int { return len(f.found) }

// Documents returns the found documents keyed by id.
func (f Fetch) Documents() map[string]map[string]any { return f.found }

// ParseIDs splits a comma-separated id list, dropping blanks.
func ParseIDs(ids string) []string {
	var out []string
	for _, id := range idSeparator.Split(strings.TrimSpace(ids), -1) {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Project keeps only the named fields of a document. Dotted names descend
// into nested objects and across arrays; a name that resolves to nothing is
// omitted. Projected values are keyed by the dotted name.
func Project(source map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, name := range fields {
		if v, ok := lookup(source, strings.Split(name, ".")); ok {
			out[name] = v
		}
	}
	return out
}

func lookup(v any, path []string) (any, bool) {
	if len(path) == 0 {
		return v, v != nil
	}
	switch node := v.(type) {
	case map[string]any:
		child, ok := node[path[0]]
		if !ok {
			return nil, false
		}
		return lookup(child, path[1:])
	case []any:
		var values []any
		for _, elem := range node {
			got, ok := lookup(elem, path)
			if !ok {
				continue
			}
			if nested, isList := got.([]any); isList {
				values = append(values, nested...)
			} else {
				values = append(values, got)
			}
		}
		return values, len(values) > 0
	}
	return nil, false
}
