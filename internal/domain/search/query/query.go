// Package query compiles the free-text and fielded text parameters of a
// search into full-text clauses.
package query

import (
	"fmt"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
	"github.com/dpla/platform-search/internal/domain/search/params"
)

// MaxQueryLength is the maximum allowed length of a query value.
const MaxQueryLength = 4096

// Clause is one full-text clause. An empty field list searches every text field.
type Clause struct {
	fields []string
	text   string
}

// NewClause validates and creates a Clause.
func NewClause(text string, fields ...string) (Clause, error) {
	if text == "" {
		return Clause{}, fmt.Errorf("clause text is required")
	}
	return Clause{fields: fields, text: text}, nil
}

// Fields returns the fields the clause is restricted to.
func (c Clause) Fields() []string { return c.fields }

// Text returns the query text.
func (c Clause) Text() string { return c.text }

// IsFielded reports whether the clause targets specific fields.
func (c Clause) IsFielded() bool { return len(c.fields) > 0 }

// Owns reports whether a parameter naming f is compiled into a query clause
// rather than a filter. An object is owned only when it nests a text field.
func Owns(f field.Field) bool {
	return len(textFields(f)) > 0
}

// Schema is the field lookup the builder needs.
type Schema interface {
	Field(res resource.Resource, path string) (field.Field, bool)
}

// Target receives the query clauses of one search request.
type Target interface {
	Resource() resource.Resource
	AddQuery(c Clause)
}

// Builder compiles query parameters into clauses.
type Builder struct {
	schema Schema
}

// NewBuilder creates a query builder over a schema.
func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// BuildAll attaches the clauses for q and every parameter naming a text field
// or an object with text subfields, and reports whether any clause was attached.
func (b *Builder) BuildAll(t Target, p params.Params) (bool, error) {
	var clauses []Clause

	if q := p.Get(params.Query); q != "" {
		if len(q) > MaxQueryLength {
			return false, domain.BadRequest("Query too long (max %d characters)", MaxQueryLength)
		}
		c, err := NewClause(q)
		if err != nil {
			return false, err
		}
		clauses = append(clauses, c)
	}

	res := t.Resource()
	for _, key := range p.FieldKeys() {
		f, ok := b.schema.Field(res, key)
		if !ok || !Owns(f) {
			continue
		}

		value := p.Get(key)
		if value == "" {
			return false, domain.BadRequest("Empty value specified for field: %s", key)
		}
		if len(value) > MaxQueryLength {
			return false, domain.BadRequest("Query too long for field %s (max %d characters)", key, MaxQueryLength)
		}

		c, err := NewClause(value, textFields(f)...)
		if err != nil {
			return false, err
		}
		clauses = append(clauses, c)
	}

	for _, c := range clauses {
		t.AddQuery(c)
	}
	return len(clauses) > 0, nil
}

// textFields returns f itself when it is a text field, or every text field nested under it.
func textFields(f field.Field) []string {
	var names []string
	f.Walk(func(sub field.Field) {
		if sub.Kind() == field.Text {
			names = append(names, sub.Name())
		}
	})
	return names
}
