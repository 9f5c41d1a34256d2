package index

import (
	"fmt"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// tagSeparator splits multi-valued tags. Keyword values routinely contain commas.
const tagSeparator = "|"

// buildIndex creates the index definition of one resource from its schema fields.
// Text fields get a TEXT attribute plus a case-sensitive TAG for their exact-match
// variant; dates and points are indexed from the derived member.
func buildIndex(name, prefix string, fields []field.Field) (*db.IndexDefinition, error) {
	def := &db.IndexDefinition{Name: name, Prefix: prefix}

	for _, root := range fields {
		var err error
		root.Walk(func(f field.Field) {
			if err != nil {
				return
			}
			var attrs []db.Attribute
			attrs, err = attributes(f)
			def.Attributes = append(def.Attributes, attrs...)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return def, nil
}

func attributes(f field.Field) ([]db.Attribute, error) {
	alias := db.Attr(f.Name())
	switch f.Kind() {
	case field.Object:
		// subfields are visited by Walk
		return nil, nil
	case field.Text:
		attrs := []db.Attribute{{Path: f.Path(), Alias: alias, Type: db.FieldText}}
		if na, ok := f.NotAnalyzed(); ok {
			attrs = append(attrs, exactTag(na.Path(), db.Attr(na.Name())))
		}
		return attrs, nil
	case field.Keyword:
		return []db.Attribute{exactTag(f.Path(), alias)}, nil
	case field.Numeric:
		return []db.Attribute{{Path: f.Path(), Alias: alias, Type: db.FieldNumeric, Sortable: true}}, nil
	case field.Date:
		return []db.Attribute{{Path: db.DerivedPath(f.Name()), Alias: alias, Type: db.FieldNumeric, Sortable: true}}, nil
	case field.GeoPoint:
		return []db.Attribute{{Path: db.DerivedPath(f.Name()), Alias: alias, Type: db.FieldGeo}}, nil
	default:
		return nil, fmt.Errorf("unknown field kind %s for %s", f.Kind(), f.Name())
	}
}

func exactTag(path, alias string) db.Attribute {
	return db.Attribute{
		Path:          path,
		Alias:         alias,
		Type:          db.FieldTag,
		Sortable:      true,
		Separator:     tagSeparator,
		CaseSensitive: true,
	}
}
