package field

import (
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func mustNew(t *testing.T, name string, kind Kind, opts Options) Field {
	t.Helper()
	f, err := New(name, kind, opts)
	if err != nil {
		t.Fatalf("New(%q): %v", name, err)
	}
	return f
}

func TestNew_DefaultFacetability(t *testing.T) {
	tests := []struct {
		kind  Kind
		opts  Options
		facet bool
	}{
		{Keyword, Options{}, true},
		{Date, Options{}, true},
		{Numeric, Options{}, true},
		{GeoPoint, Options{}, true},
		{Text, Options{}, false},
		{Text, Options{NotAnalyzed: true}, true},
	}

	for _, tt := range tests {
		f := mustNew(t, "somefield", tt.kind, tt.opts)
		if f.IsFacetable() != tt.facet {
			t.Errorf("%s (not_analyzed=%v): IsFacetable() = %v, want %v",
				tt.kind, tt.opts.NotAnalyzed, f.IsFacetable(), tt.facet)
		}
	}
}

func TestNew_FacetableOverride(t *testing.T) {
	f := mustNew(t, "id", Keyword, Options{Facetable: boolPtr(false)})
	if f.IsFacetable() {
		t.Error("expected facetable=false override to apply")
	}

	if _, err := New("description", Text, Options{Facetable: boolPtr(true)}); err == nil {
		t.Fatal("expected error for facetable text field without variant")
	}
}

func TestNew_InvalidNames(t *testing.T) {
	bad := []string{"", ".a", "a.", "a..b", "a b", "a-b", strings.Repeat("x", MaxNameLength+1)}
	for _, name := range bad {
		if _, err := New(name, Keyword, Options{}); err == nil {
			t.Errorf("New(%q) expected error", name)
		}
	}
}

func TestNew_ObjectRequiresSubfields(t *testing.T) {
	if _, err := New("spatial", Object, Options{}); err == nil {
		t.Fatal("expected error for object without subfields")
	}

	sub := mustNew(t, "spatial.name", Keyword, Options{})
	if _, err := New("spatial", Keyword, Options{Subfields: []Field{sub}}); err == nil {
		t.Fatal("expected error for leaf with subfields")
	}
}

func TestNew_SubfieldMustBeNested(t *testing.T) {
	sub := mustNew(t, "other.name", Keyword, Options{})
	_, err := New("spatial", Object, Options{Subfields: []Field{sub}})
	if err == nil {
		t.Fatal("expected error for subfield outside parent")
	}
	if !strings.Contains(err.Error(), "not nested") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_OptionKindMismatch(t *testing.T) {
	if _, err := New("date", Keyword, Options{MultiField: true}); err == nil {
		t.Error("expected error for multi_field on keyword")
	}
	if _, err := New("format", Keyword, Options{NotAnalyzed: true}); err == nil {
		t.Error("expected error for not_analyzed on keyword")
	}
}

func TestNotAnalyzedVariant(t *testing.T) {
	f := mustNew(t, "title", Text, Options{NotAnalyzed: true})

	na, ok := f.NotAnalyzed()
	if !ok {
		t.Fatal("expected not-analyzed variant")
	}
	if na.Name() != "title.not_analyzed" {
		t.Errorf("variant name = %q", na.Name())
	}
	if na.Kind() != Keyword || !na.IsFacetable() {
		t.Errorf("variant kind=%s facetable=%v", na.Kind(), na.IsFacetable())
	}
	if na.Path() != f.Path() {
		t.Errorf("variant path = %q, want %q", na.Path(), f.Path())
	}

	plain := mustNew(t, "description", Text, Options{})
	if _, ok := plain.NotAnalyzed(); ok {
		t.Error("plain text field must not have a variant")
	}
}

func TestDateFlags(t *testing.T) {
	d := mustNew(t, "date", Date, Options{MultiField: true})
	if !d.IsDate() || !d.IsMultiFieldDate() {
		t.Errorf("IsDate=%v IsMultiFieldDate=%v", d.IsDate(), d.IsMultiFieldDate())
	}
	plain := mustNew(t, "created", Date, Options{})
	if plain.IsMultiFieldDate() {
		t.Error("plain date reported as multi-field")
	}
}

func TestPathDefault(t *testing.T) {
	f := mustNew(t, "temporal.begin", Date, Options{})
	if f.Path() != "$.temporal.begin" {
		t.Errorf("Path() = %q", f.Path())
	}
	g := mustNew(t, "subject.name", Keyword, Options{Path: "$.subject[*].name"})
	if g.Path() != "$.subject[*].name" {
		t.Errorf("Path() = %q", g.Path())
	}
}

func TestWithModifier_DoesNotMutate(t *testing.T) {
	f := mustNew(t, "date", Date, Options{})
	m := f.WithModifier("year")
	if m.FacetModifier() != "year" {
		t.Errorf("FacetModifier() = %q", m.FacetModifier())
	}
	if f.FacetModifier() != "" {
		t.Error("original field was mutated")
	}
}

func TestIsSortable(t *testing.T) {
	tests := []struct {
		kind Kind
		opts Options
		want bool
	}{
		{Keyword, Options{}, true},
		{Date, Options{}, true},
		{Numeric, Options{}, true},
		{GeoPoint, Options{}, false},
		{Text, Options{}, false},
		{Text, Options{NotAnalyzed: true}, true},
	}
	for _, tt := range tests {
		f := mustNew(t, "f", tt.kind, tt.opts)
		if f.IsSortable() != tt.want {
			t.Errorf("%s: IsSortable() = %v, want %v", tt.kind, f.IsSortable(), tt.want)
		}
	}
}

func TestWalk_DepthFirst(t *testing.T) {
	begin := mustNew(t, "temporal.begin", Date, Options{})
	end := mustNew(t, "temporal.end", Date, Options{})
	temporal := mustNew(t, "temporal", Object, Options{Subfields: []Field{begin, end}})

	var names []string
	temporal.Walk(func(f Field) { names = append(names, f.Name()) })

	want := "temporal,temporal.begin,temporal.end"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("Walk order = %q, want %q", got, want)
	}
}

func TestSubfields_ReturnsCopy(t *testing.T) {
	sub := mustNew(t, "spatial.name", Keyword, Options{})
	f := mustNew(t, "spatial", Object, Options{Subfields: []Field{sub}})

	subs := f.Subfields()
	subs[0] = Field{}
	if f.Subfields()[0].Name() != "spatial.name" {
		t.Error("Subfields() exposed internal slice")
	}
}
