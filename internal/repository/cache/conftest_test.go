package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/params"
	"github.com/dpla/platform-search/internal/domain/search/result"
)

type mockSearcher struct {
	env         result.Envelope
	err         error
	searchCalls int
	fetchCalls  int
}

func (m *mockSearcher) Search(_ context.Context, _ resource.Resource, _ params.Params) (result.Envelope, error) {
	m.searchCalls++
	return m.env, m.err
}

func (m *mockSearcher) Fetch(_ context.Context, _ resource.Resource, ids string) (result.Fetch, error) {
	m.fetchCalls++
	if m.err != nil {
		return result.Fetch{}, m.err
	}
	list := result.ParseIDs(ids)
	found := make(map[string]map[string]any, len(list))
	for _, id := range list {
		if id != "missing" {
			found[id] = map[string]any{"id": id}
		}
	}
	return result.NewFetch(list, found), nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedSearcher(t *testing.T, inner *mockSearcher) (*CachedSearcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cs := New(inner, ms, resource.NewKeyspace(""), time.Minute, nil, zap.NewNop())
	return cs, ms
}
