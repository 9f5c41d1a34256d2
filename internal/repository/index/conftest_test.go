package index

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	reg, err := schema.Default()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	ms := &mockStore{}
	return New(ms, reg, resource.NewKeyspace(""), zap.NewNop()), ms
}

func findAttr(def *db.IndexDefinition, alias string) (db.Attribute, bool) {
	return def.Attribute(alias)
}
