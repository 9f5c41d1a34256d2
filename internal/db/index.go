package db

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the engine type of an indexed attribute.
type FieldType string

// Attribute types.
const (
	FieldText    FieldType = "TEXT"
	FieldTag     FieldType = "TAG"
	FieldNumeric FieldType = "NUMERIC"
	FieldGeo     FieldType = "GEO"
)

// Attribute maps one JSONPath of the stored documents to a queryable alias.
type Attribute struct {
	Path     string
	Alias    string
	Type     FieldType
	Sortable bool

	// TAG only.
	Separator     string
	CaseSensitive bool
}

// IndexDefinition is a search index over the JSON documents under one key prefix.
type IndexDefinition struct {
	Name       string
	Prefix     string
	Attributes []Attribute
}

// Validate checks that the definition can be sent to FT.CREATE.
func (d *IndexDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("index name is required")
	}
	if strings.ContainsAny(d.Name, " \t\r\n") {
		return fmt.Errorf("index name %q contains whitespace", d.Name)
	}
	if d.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if len(d.Attributes) == 0 {
		return errors.New("at least one attribute is required")
	}

	seen := make(map[string]struct{}, len(d.Attributes))
	for i := range d.Attributes {
		a := &d.Attributes[i]
		if !strings.HasPrefix(a.Path, "$") {
			return fmt.Errorf("attribute %d: path %q is not a JSONPath", i, a.Path)
		}
		if a.Alias == "" {
			return fmt.Errorf("attribute %s: alias is required", a.Path)
		}
		if _, dup := seen[a.Alias]; dup {
			return fmt.Errorf("duplicate attribute alias: %s", a.Alias)
		}
		seen[a.Alias] = struct{}{}

		switch a.Type {
		case FieldTag:
		case FieldText, FieldNumeric, FieldGeo:
			if a.Separator != "" || a.CaseSensitive {
				return fmt.Errorf("attribute %s: tag options on %s", a.Alias, a.Type)
			}
		default:
			return fmt.Errorf("attribute %s: unknown type %q", a.Alias, a.Type)
		}
		if a.Type == FieldGeo && a.Sortable {
			return fmt.Errorf("attribute %s: GEO cannot be sortable", a.Alias)
		}
	}
	return nil
}

// Attribute returns the attribute with the given alias.
func (d *IndexDefinition) Attribute(alias string) (Attribute, bool) {
	for _, a := range d.Attributes {
		if a.Alias == alias {
			return a, true
		}
	}
	return Attribute{}, false
}

// CreateArgs returns the FT.CREATE arguments following the command name.
func (d *IndexDefinition) CreateArgs() []string {
	args := []string{d.Name, "ON", "JSON", "PREFIX", "1", d.Prefix, "SCHEMA"}
	for _, a := range d.Attributes {
		args = append(args, a.Path, "AS", a.Alias, string(a.Type))
		if a.Type == FieldTag {
			if a.Separator != "" {
				args = append(args, "SEPARATOR", a.Separator)
			}
			if a.CaseSensitive {
				args = append(args, "CASESENSITIVE")
			}
		}
		if a.Sortable {
			args = append(args, "SORTABLE")
		}
	}
	return args
}

func (d *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(d.CreateArgs(), " ")
}
