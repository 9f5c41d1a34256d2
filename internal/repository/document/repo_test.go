package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"syscall"
	"testing"
	"time"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
)

// --- FetchByIDs ---

func TestFetchByIDs_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.jsonGetMultiFn = func(_ context.Context, keys []string) ([][]byte, error) {
		want := []string{"dpla:items:a", "dpla:items:b"}
		if !reflect.DeepEqual(keys, want) {
			t.Errorf("unexpected keys: %v", keys)
		}
		return [][]byte{[]byte(`{"id":"a","title":"x","_index":{"date":[1]}}`), nil}, nil
	}

	found, err := repo.FetchByIDs(context.Background(), resource.Items, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 document, got %d", len(found))
	}
	if found["a"]["title"] != "x" {
		t.Errorf("unexpected document: %v", found["a"])
	}
	if _, ok := found["a"][db.DerivedKey]; ok {
		t.Error("derived values must be stripped")
	}
}

func TestFetchByIDs_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetMultiFn = func(_ context.Context, _ []string) ([][]byte, error) {
		t.Error("store must not be called")
		return nil, nil
	}

	found, err := repo.FetchByIDs(context.Background(), resource.Items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no documents, got %v", found)
	}
}

func TestFetchByIDs_Unavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetMultiFn = func(_ context.Context, _ []string) ([][]byte, error) {
		return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, syscall.ECONNREFUSED)}
	}

	_, err := repo.FetchByIDs(context.Background(), resource.Items, []string{"a"})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestFetchByIDs_BadJSON(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetMultiFn = func(_ context.Context, _ []string) ([][]byte, error) {
		return [][]byte{[]byte("{")}, nil
	}

	if _, err := repo.FetchByIDs(context.Background(), resource.Items, []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}

// --- Put ---

func TestPut_StoresDerivedValues(t *testing.T) {
	repo, ms := newTestRepo(t)

	var stored []db.JSONSetItem
	ms.jsonSetMultiFn = func(_ context.Context, items []db.JSONSetItem) error {
		stored = items
		return nil
	}

	doc := map[string]any{
		"id":    "a",
		"title": "Gettysburg",
		"date":  map[string]any{"begin": "1863-07", "end": "1863-07"},
		"spatial": []any{
			map[string]any{"name": "Gettysburg", "coordinates": "39.83, -77.23"},
			map[string]any{"name": "Nowhere", "coordinates": "not a point"},
		},
	}
	if err := repo.Put(context.Background(), resource.Items, []map[string]any{doc}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stored) != 1 {
		t.Fatalf("expected 1 item, got %d", len(stored))
	}
	if stored[0].Key != "dpla:items:a" || stored[0].Path != "$" {
		t.Errorf("unexpected item: %s %s", stored[0].Key, stored[0].Path)
	}

	var got map[string]any
	if err := json.Unmarshal(stored[0].Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	derived, ok := got[db.DerivedKey].(map[string]any)
	if !ok {
		t.Fatalf("missing derived values: %v", got)
	}
	july := float64(time.Date(1863, time.July, 1, 0, 0, 0, 0, time.UTC).Unix())
	if !reflect.DeepEqual(derived["date"], []any{july}) {
		t.Errorf("unexpected date: %v", derived["date"])
	}
	if !reflect.DeepEqual(derived["spatial__coordinates"], []any{"-77.23,39.83"}) {
		t.Errorf("unexpected coordinates: %v", derived["spatial__coordinates"])
	}
	if _, ok := doc[db.DerivedKey]; ok {
		t.Error("caller document must not be modified")
	}
}

func TestPut_MissingID(t *testing.T) {
	repo, _ := newTestRepo(t)
	err := repo.Put(context.Background(), resource.Items, []map[string]any{{"title": "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPut_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetMultiFn = func(_ context.Context, _ []db.JSONSetItem) error {
		return errors.New("boom")
	}
	err := repo.Put(context.Background(), resource.Items, []map[string]any{{"id": "a"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- derived values ---

func TestSelectPath(t *testing.T) {
	doc := map[string]any{
		"title":   []any{"a", "b"},
		"spatial": []any{map[string]any{"state": "Maine"}, map[string]any{"state": "Ohio"}, "junk"},
		"nested":  map[string]any{"deep": map[string]any{"v": 1.0}},
	}

	tests := []struct {
		path string
		want []any
	}{
		{"$.title", []any{"a", "b"}},
		{"$.spatial[*].state", []any{"Maine", "Ohio"}},
		{"$.nested.deep.v", []any{1.0}},
		{"$.missing", nil},
		{"$.nested[*]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := selectPath(doc, tt.path)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selectPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestEpochSeconds(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1865", float64(time.Date(1865, 1, 1, 0, 0, 0, 0, time.UTC).Unix()), true},
		{"2014-03-01T12:00:00Z", float64(time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC).Unix()), true},
		{map[string]any{"begin": "1900-01-02"}, float64(time.Date(1900, 1, 2, 0, 0, 0, 0, time.UTC).Unix()), true},
		{"circa 1900", 0, false},
		{42.0, 0, false},
	}
	for _, tt := range tests {
		got, ok := epochSeconds(tt.in)
		if ok != tt.ok {
			t.Errorf("epochSeconds(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("epochSeconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLngLat(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"42.3, -71.1", "-71.1,42.3", true},
		{map[string]any{"lat": 10.0, "lon": 20.5}, "20.5,10", true},
		{"95, 10", "", false},
		{"boston", "", false},
		{[]any{1.0, 2.0}, "", false},
	}
	for _, tt := range tests {
		got, ok := lngLat(tt.in)
		if ok != tt.ok {
			t.Errorf("lngLat(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("lngLat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
