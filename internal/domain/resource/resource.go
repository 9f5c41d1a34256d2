// Package resource enumerates the searchable resource types.
package resource

import "fmt"

// Resource is a searchable resource type.
type Resource string

// Resource constants.
const (
	Items       Resource = "items"
	Collections Resource = "collections"
)

// All lists every resource in a stable order.
var All = []Resource{Items, Collections}

// IsValid checks if the resource is one of the supported values.
func (r Resource) IsValid() bool {
	return r == Items || r == Collections
}

// String returns the resource name.
func (r Resource) String() string { return string(r) }

// Parse validates a raw resource name.
func Parse(s string) (Resource, error) {
	r := Resource(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown resource %q", s)
	}
	return r, nil
}
