package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

//go:embed default.yaml
var defaultSchema []byte

// fieldDef is the YAML form of one field. Subfield names are relative to the parent.
type fieldDef struct {
	Name        string     `yaml:"name"`
	Type        field.Kind `yaml:"type"`
	Path        string     `yaml:"path"`
	Facetable   *bool      `yaml:"facetable"`
	MultiField  bool       `yaml:"multi_field"`
	NotAnalyzed bool       `yaml:"not_analyzed"`
	Fields      []fieldDef `yaml:"fields"`
}

// Default returns the built-in schema.
func Default() (*Registry, error) {
	return Parse(defaultSchema)
}

// Load reads a schema from a YAML file. An empty path selects the built-in schema.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Registry from YAML keyed by resource name.
func Parse(data []byte) (*Registry, error) {
	var raw map[resource.Resource][]fieldDef
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	defs := make(map[resource.Resource][]field.Field, len(raw))
	for res, fds := range raw {
		roots := make([]field.Field, 0, len(fds))
		for i := range fds {
			f, err := buildField(&fds[i], "", "$")
			if err != nil {
				return nil, fmt.Errorf("%s: %w", res, err)
			}
			roots = append(roots, f)
		}
		defs[res] = roots
	}

	return New(defs)
}

func buildField(fd *fieldDef, parentName, parentPath string) (field.Field, error) {
	name := fd.Name
	if parentName != "" {
		name = parentName + "." + fd.Name
	}
	path := fd.Path
	if path == "" {
		path = parentPath + "." + fd.Name
	}

	subs := make([]field.Field, 0, len(fd.Fields))
	for i := range fd.Fields {
		sub, err := buildField(&fd.Fields[i], name, path)
		if err != nil {
			return field.Field{}, err
		}
		subs = append(subs, sub)
	}

	return field.New(name, fd.Type, field.Options{
		Path:        path,
		Facetable:   fd.Facetable,
		MultiField:  fd.MultiField,
		NotAnalyzed: fd.NotAnalyzed,
		Subfields:   subs,
	})
}
