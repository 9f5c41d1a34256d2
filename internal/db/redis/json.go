package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/dpla/platform-search/internal/db"
)

// JSONSetMulti stores multiple JSON documents in a single DoMulti round-trip.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, len(items))
	for i, item := range items {
		path := item.Path
		if path == "" {
			path = "$"
		}
		cmds[i] = s.b().Arbitrary("JSON.SET").Keys(item.Key).Args(path, string(item.Data)).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return wrapErr(db.OpJSONSet, fmt.Errorf("key %s: %w", items[i].Key, err))
		}
	}
	return nil
}

// JSONGetMulti fetches whole documents for multiple keys in a single DoMulti round-trip.
// The result is aligned with keys; a missing key yields a nil entry.
func (s *Store) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Arbitrary("JSON.GET").Keys(key).Build()
	}

	out := make([][]byte, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		raw, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, wrapErr(db.OpJSONGet, fmt.Errorf("key %s: %w", keys[i], err))
		}
		if raw != "" {
			out[i] = []byte(raw)
		}
	}
	return out, nil
}
