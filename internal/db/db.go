package db

import (
	"context"
	"strings"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	JSONStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONSetItem holds a single key+path+data triple for pipelined JSON.SET.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	// JSONGetMulti returns the documents in key order; a missing key yields nil.
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs a search with its facet aggregations.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
}

// DerivedKey is the document member holding values computed at write time
// for attributes the engine cannot index from the source form (epoch dates,
// "lng,lat" points). It is stripped from documents returned to clients.
const DerivedKey = "_index"

// Attr returns the index attribute alias of a dotted field name.
func Attr(name string) string {
	return strings.ReplaceAll(name, ".", "__")
}

// DerivedPath returns the JSON path selecting every derived value of a field.
func DerivedPath(name string) string {
	return "$." + DerivedKey + "." + Attr(name) + "[*]"
}
