package schema

import (
	"strings"

	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// Vocabulary is the namespace of every term in a JSON-LD context.
const Vocabulary = "http://dp.la/terms/"

const xsd = "http://www.w3.org/2001/XMLSchema#"

// Context returns the JSON-LD context document of a resource.
// Object fields carry a scoped context for their subfields.
func (r *Registry) Context(res resource.Resource) (map[string]any, bool) {
	fs, ok := r.resources[res]
	if !ok {
		return nil, false
	}

	terms := map[string]any{
		"@vocab": Vocabulary,
		"dpla":   Vocabulary,
		"xsd":    xsd,
		"id":     "@id",
	}
	for _, f := range fs.roots {
		if f.Name() == "id" {
			continue
		}
		terms[f.Name()] = term(f)
	}
	return map[string]any{"@context": terms}, true
}

func term(f field.Field) map[string]any {
	t := map[string]any{"@id": "dpla:" + f.Name()}
	switch f.Kind() {
	case field.Date:
		t["@type"] = "xsd:date"
	case field.Numeric:
		t["@type"] = "xsd:decimal"
	case field.Object:
		scoped := make(map[string]any, len(f.Subfields()))
		for _, sub := range f.Subfields() {
			scoped[leafName(sub.Name())] = term(sub)
		}
		t["@context"] = scoped
	}
	return t
}

func leafName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
