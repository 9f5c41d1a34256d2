package search

import (
	"context"

	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
	"github.com/dpla/platform-search/internal/domain/schema/field"
	"github.com/dpla/platform-search/internal/domain/search/request"
	"github.com/dpla/platform-search/internal/domain/search/result"
)

// Engine dispatches a compiled search request to the search engine.
type Engine interface {
	Search(ctx context.Context, req *request.Request) (result.Raw, error)
}

// Documents reads stored documents by id. Missing ids are absent from the result.
type Documents interface {
	FetchByIDs(ctx context.Context, res resource.Resource, ids []string) (map[string]map[string]any, error)
}

// Schema is the read-only field schema the service compiles requests against.
type Schema interface {
	Field(res resource.Resource, path string) (field.Field, bool)
	FieldByName(res resource.Resource, basePath, modifier string) (field.Field, bool)
	Extension(res resource.Resource, name string) (field.Field, schema.Extension, bool)
	AllMappedFieldNames() []string
}
