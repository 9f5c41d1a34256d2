package field

import (
	"fmt"
	"strings"
)

// Kind is the indexing kind of a field.
type Kind string

// Field kind constants.
const (
	// Text is an analyzed full-text field.
	Text     Kind = "text"
	Keyword  Kind = "keyword"
	Date     Kind = "date"
	Numeric  Kind = "numeric"
	GeoPoint Kind = "geo_point"
	// Object groups subfields and is never indexed itself.
	Object Kind = "object"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	switch k {
	case Text, Keyword, Date, Numeric, GeoPoint, Object:
		return true
	}
	return false
}

// NotAnalyzedSuffix is appended to a text field name to form its exact-match variant.
const NotAnalyzedSuffix = ".not_analyzed"

// MaxNameLength is the maximum length of a dotted field path.
const MaxNameLength = 128

// Options carries the optional attributes of a field definition.
type Options struct {
	// Path is the JSON path of the value in a stored document. Defaults to "$.<name>".
	Path string
	// Facetable overrides the kind-derived facetability.
	Facetable *bool
	// MultiField marks a date field indexed under several forms.
	MultiField bool
	// NotAnalyzed adds an exact-match keyword variant to a text field.
	NotAnalyzed bool
	Subfields   []Field
}

// Field is an immutable value object describing one schema field.
type Field struct {
	name          string
	kind          Kind
	path          string
	facetable     bool
	multiField    bool
	notAnalyzed   *Field
	subfields     []Field
	facetModifier string
}

// New validates and creates a Field.
func New(name string, kind Kind, opts Options) (Field, error) {
	if err := validateName(name); err != nil {
		return Field{}, err
	}
	if !kind.IsValid() {
		return Field{}, fmt.Errorf("invalid field kind %q for %q", kind, name)
	}
	if kind == Object && len(opts.Subfields) == 0 {
		return Field{}, fmt.Errorf("object field %q requires subfields", name)
	}
	if kind != Object && len(opts.Subfields) > 0 {
		return Field{}, fmt.Errorf("field %q of kind %s cannot have subfields", name, kind)
	}
	if opts.NotAnalyzed && kind != Text {
		return Field{}, fmt.Errorf("not_analyzed is only valid for text fields, got %s on %q", kind, name)
	}
	if opts.MultiField && kind != Date {
		return Field{}, fmt.Errorf("multi_field is only valid for date fields, got %s on %q", kind, name)
	}
	for _, sub := range opts.Subfields {
		if !strings.HasPrefix(sub.name, name+".") {
			return Field{}, fmt.Errorf("subfield %q is not nested under %q", sub.name, name)
		}
	}

	f := Field{
		name:       name,
		kind:       kind,
		path:       opts.Path,
		multiField: opts.MultiField,
		subfields:  opts.Subfields,
	}
	if f.path == "" {
		f.path = "$." + name
	}

	if opts.NotAnalyzed {
		f.notAnalyzed = &Field{
			name:      name + NotAnalyzedSuffix,
			kind:      Keyword,
			path:      f.path,
			facetable: true,
		}
	}

	f.facetable = defaultFacetable(kind, opts.NotAnalyzed)
	if opts.Facetable != nil {
		if *opts.Facetable && !f.facetable {
			return Field{}, fmt.Errorf("field %q of kind %s cannot be facetable", name, kind)
		}
		f.facetable = *opts.Facetable
	}

	return f, nil
}

func defaultFacetable(kind Kind, notAnalyzed bool) bool {
	switch kind {
	case Keyword, Date, Numeric, GeoPoint:
		return true
	case Text:
		return notAnalyzed
	default:
		return false
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("field name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("field name %q too long (max %d)", name, MaxNameLength)
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return fmt.Errorf("field name %q has an empty path segment", name)
	}
	for _, r := range name {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '.' {
			return fmt.Errorf("field name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

// Name returns the dotted field path.
func (f Field) Name() string { return f.name }

// Kind returns the indexing kind.
func (f Field) Kind() Kind { return f.kind }

// Path returns the JSON path of the value in stored documents.
func (f Field) Path() string { return f.path }

// IsFacetable reports whether the field may be requested as a facet.
func (f Field) IsFacetable() bool { return f.facetable }

// IsDate reports whether the field holds dates.
func (f Field) IsDate() bool { return f.kind == Date }

// IsMultiFieldDate reports whether the field is a date indexed under several forms.
func (f Field) IsMultiFieldDate() bool { return f.kind == Date && f.multiField }

// IsGeoPoint reports whether the field holds geographic coordinates.
func (f Field) IsGeoPoint() bool { return f.kind == GeoPoint }

// IsLeaf reports whether the field has no subfields.
func (f Field) IsLeaf() bool { return len(f.subfields) == 0 }

// IsSortable reports whether results can be ordered by this field.
func (f Field) IsSortable() bool {
	switch f.kind {
	case Keyword, Date, Numeric:
		return true
	case Text:
		return f.notAnalyzed != nil
	default:
		return false
	}
}

// NotAnalyzed returns the exact-match variant of a text field.
func (f Field) NotAnalyzed() (Field, bool) {
	if f.notAnalyzed == nil {
		return Field{}, false
	}
	return *f.notAnalyzed, true
}

// Subfields returns the direct children of an object field.
func (f Field) Subfields() []Field {
	out := make([]Field, len(f.subfields))
	copy(out, f.subfields)
	return out
}

// FacetModifier returns the modifier attached during facet name parsing.
func (f Field) FacetModifier() string { return f.facetModifier }

// WithModifier returns a copy of the field carrying the given facet modifier.
func (f Field) WithModifier(modifier string) Field {
	f.facetModifier = modifier
	return f
}

// Walk calls fn for the field and every descendant, depth first.
func (f Field) Walk(fn func(Field)) {
	fn(f)
	for _, sub := range f.subfields {
		sub.Walk(fn)
	}
}
