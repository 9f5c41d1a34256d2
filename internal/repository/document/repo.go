package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// IDKey is the document member holding its identifier.
const IDKey = "id"

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
}

// fieldSource lists the schema fields whose derived values are stored with a document.
type fieldSource interface {
	Fields(res resource.Resource) []field.Field
}

// Repo implements usecase/search.Documents.
type Repo struct {
	store  store
	schema fieldSource
	keys   resource.Keyspace
}

// New creates a document repository.
func New(s store, schema fieldSource, keys resource.Keyspace) *Repo {
	return &Repo{store: s, schema: schema, keys: keys}
}

// FetchByIDs returns the stored documents of res keyed by id. Missing ids are absent.
func (r *Repo) FetchByIDs(ctx context.Context, res resource.Resource, ids []string) (map[string]map[string]any, error) {
	if len(ids) == 0 {
		return map[string]map[string]any{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.DocKey(res, id)
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return nil, domain.ServiceUnavailable(err)
		}
		return nil, fmt.Errorf("json.get %s: %w", res, err)
	}

	found := make(map[string]map[string]any, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", keys[i], err)
		}
		delete(doc, db.DerivedKey)
		found[ids[i]] = doc
	}
	return found, nil
}

// Put stores documents of res together with their derived index values.
// Every document needs a non-empty string id.
func (r *Repo) Put(ctx context.Context, res resource.Resource, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	fields := r.schema.Fields(res)
	items := make([]db.JSONSetItem, 0, len(docs))
	for i, doc := range docs {
		id, _ := doc[IDKey].(string)
		if id == "" {
			return fmt.Errorf("document %d of %s: missing %q", i, res, IDKey)
		}

		stored := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			stored[k] = v
		}
		stored[db.DerivedKey] = derive(doc, fields)

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", id, err)
		}
		items = append(items, db.JSONSetItem{Key: r.keys.DocKey(res, id), Path: "$", Data: data})
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("json.set %s: %w", res, err)
	}
	return nil
}
