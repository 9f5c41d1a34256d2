package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/request"
	"github.com/dpla/platform-search/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Engine.
type Repo struct {
	store store
	keys  resource.Keyspace
}

// New creates a search repository.
func New(s store, keys resource.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Search dispatches a compiled request and converts the engine response.
func (r *Repo) Search(ctx context.Context, req *request.Request) (result.Raw, error) {
	res := req.Resource()
	q := &db.SearchQuery{
		IndexName: r.keys.IndexName(res),
		Clauses:   req.Queries(),
		Filters:   req.Filters(),
		Facets:    req.Facets(),
		Offset:    req.From(),
		Limit:     req.Size(),
	}
	if s := req.Sort(); s != nil {
		q.Sort = &db.Sort{Field: s.Field, Desc: s.Order == request.Desc}
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return result.Raw{}, domain.ServiceUnavailable(err)
		}
		return result.Raw{}, fmt.Errorf("search %s: %w", res, err)
	}

	hits, err := parseHits(sr.Entries, r.keys.DocPrefix(res), req.Fields())
	if err != nil {
		return result.Raw{}, fmt.Errorf("search %s: %w", res, err)
	}

	return result.Raw{
		Total:  sr.Total,
		Hits:   hits,
		Facets: shapeFacets(req.Facets(), sr.Facets),
	}, nil
}

// parseHits decodes the stored document of every entry.
func parseHits(entries []db.SearchEntry, prefix string, fields []string) ([]result.Hit, error) {
	hits := make([]result.Hit, 0, len(entries))
	for _, entry := range entries {
		source, err := decodeSource(entry.Fields["$"])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Key, err)
		}
		if len(fields) > 0 {
			source = result.Project(source, fields)
		}
		hits = append(hits, result.NewHit(strings.TrimPrefix(entry.Key, prefix), entry.Score, source))
	}
	return hits, nil
}

// decodeSource unmarshals a stored document and drops the derived index values.
func decodeSource(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	delete(doc, db.DerivedKey)
	return doc, nil
}
