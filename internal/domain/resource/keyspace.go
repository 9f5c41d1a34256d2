package resource

// DefaultKeyPrefix namespaces every storage key of the service.
const DefaultKeyPrefix = "search:"

// Keyspace names the storage keys of each resource under a deployment prefix.
type Keyspace struct {
	prefix string
}

// NewKeyspace creates a keyspace. An empty prefix selects DefaultKeyPrefix.
func NewKeyspace(prefix string) Keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keyspace{prefix: prefix}
}

// Prefix returns the deployment prefix.
func (k Keyspace) Prefix() string { return k.prefix }

// DocPrefix returns the key prefix shared by every document of r.
func (k Keyspace) DocPrefix(r Resource) string { return k.prefix + string(r) + ":" }

// DocKey returns the storage key of one document.
func (k Keyspace) DocKey(r Resource, id string) string { return k.DocPrefix(r) + id }

// IndexName returns the search index of r.
func (k Keyspace) IndexName(r Resource) string { return k.prefix + string(r) + ":idx" }
