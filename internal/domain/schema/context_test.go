package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpla/platform-search/internal/domain/resource"
)

func TestContext_Items(t *testing.T) {
	r := defaultRegistry(t)

	doc, ok := r.Context(resource.Items)
	require.True(t, ok)
	terms, ok := doc["@context"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, Vocabulary, terms["@vocab"])
	assert.Equal(t, "@id", terms["id"])
	assert.Equal(t, map[string]any{"@id": "dpla:title"}, terms["title"])
	assert.Equal(t, map[string]any{"@id": "dpla:date", "@type": "xsd:date"}, terms["date"])
	assert.Equal(t, map[string]any{"@id": "dpla:extent", "@type": "xsd:decimal"}, terms["extent"])

	temporal, ok := terms["temporal"].(map[string]any)
	require.True(t, ok)
	scoped, ok := temporal["@context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"@id": "dpla:temporal.begin", "@type": "xsd:date"}, scoped["begin"])
}

func TestContext_PerResource(t *testing.T) {
	r := defaultRegistry(t)

	doc, ok := r.Context(resource.Collections)
	require.True(t, ok)
	terms := doc["@context"].(map[string]any)
	assert.NotContains(t, terms, "spatial")

	_, ok = r.Context(resource.Resource("people"))
	assert.False(t, ok)
}
