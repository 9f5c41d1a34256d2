package search

import (
	"context"
	"testing"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
	"github.com/dpla/platform-search/internal/domain/search/facet"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, resource.NewKeyspace("dpla:"))
	return repo, ms
}

func mustSpec(t *testing.T, res resource.Resource, token string) facet.Spec {
	t.Helper()
	reg, err := schema.Default()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	f, ok := facet.ParseName(reg, res, token)
	if !ok {
		t.Fatalf("unknown facet %q", token)
	}
	spec, err := facet.BuildSpec(f)
	if err != nil {
		t.Fatalf("BuildSpec(%q): %v", token, err)
	}
	return spec
}
