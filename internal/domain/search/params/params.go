// Package params handles the flat parameter map submitted by callers.
package params

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dpla/platform-search/internal/domain"
)

// Base parameter keys that are not field names.
const (
	Query     = "q"
	Control   = "controller"
	Action    = "action"
	SortBy    = "sort_by"
	SortOrder = "sort_order"
	Page      = "page"
	PageSize  = "page_size"
	Facets    = "facets"
	Fields    = "fields"
	Callback  = "callback"
)

// BaseKeys are accepted for every resource regardless of the schema.
var BaseKeys = []string{Query, Control, Action, SortBy, SortOrder, Page, PageSize, Facets, Fields, Callback}

var baseKeySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(BaseKeys))
	for _, k := range BaseKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsBase reports whether key is a base (non-field) parameter.
func IsBase(key string) bool {
	_, ok := baseKeySet[key]
	return ok
}

// Params is a flat parameter map.
type Params map[string]string

// Get returns the trimmed value of key.
func (p Params) Get(key string) string {
	return strings.TrimSpace(p[key])
}

// Has reports whether key is present with a non-blank value.
func (p Params) Has(key string) bool {
	return p.Get(key) != ""
}

// Int parses key as an integer. Missing or non-numeric values yield 0.
func (p Params) Int(key string) int {
	n, err := strconv.Atoi(p.Get(key))
	if err != nil {
		return 0
	}
	return n
}

// List splits a comma-separated value, dropping blanks and duplicates.
func (p Params) List(key string) []string {
	return SplitList(p[key])
}

// FieldKeys returns the non-base keys in sorted order.
func (p Params) FieldKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if !IsBase(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// SplitList splits s on commas, trimming items and dropping blanks and duplicates.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

// Validate rejects any key that is neither a base key nor in mapped.
// mapped is the union of every resource's field names, so a field of another
// resource passes here and is rejected later by the filter builder.
func Validate(p Params, mapped []string) error {
	allowed := make(map[string]struct{}, len(mapped))
	for _, name := range mapped {
		allowed[name] = struct{}{}
	}

	var invalid []string
	for _, k := range p.FieldKeys() {
		if _, ok := allowed[k]; !ok {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		return domain.BadRequest("Invalid field(s) specified in query: %s", strings.Join(invalid, ","))
	}
	return nil
}
