// Package query filters books with CEL expressions such as
//
//	member == "Alice" && rating >= 4.0
//	"fantasy" in tags && !selected
package query

import (
	"fmt"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/google/cel-go/cel"
)

// NewBookEnv declares the variables a filter may reference
func NewBookEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("author", cel.StringType),
		cel.Variable("isbn", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("length", cel.IntType),
		cel.Variable("rating", cel.DoubleType),
		cel.Variable("member", cel.StringType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("date_added", cel.StringType),
		cel.Variable("read_date", cel.StringType),
		cel.Variable("selected", cel.BoolType),
	)
}

// Filter is a compiled boolean expression over a book
type Filter struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr. An empty expression matches every book.
func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{}, nil
	}

	env, err := NewBookEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}

	ast, iss := env.Parse(expr)
	if iss.Err() != nil {
		return nil, models.NewValidationError("where", "%v", iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, models.NewValidationError("where", "%v", iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, models.NewValidationError("where", "expression must be true or false, got %s", checked.OutputType())
	}

	program, err := env.Program(checked)
	if err != nil {
		return nil, models.NewValidationError("where", "%v", err)
	}
	return &Filter{expr: expr, program: program}, nil
}

func activation(b models.Book) map[string]any {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"title":      b.Title,
		"author":     b.Author,
		"isbn":       b.ISBN,
		"tags":       tags,
		"length":     int64(b.Length),
		"rating":     b.Rating,
		"member":     b.Member,
		"score":      b.Score,
		"date_added": b.DateAdded,
		"read_date":  b.ReadDate,
		"selected":   b.Selected(),
	}
}

// Match evaluates the filter against one book
func (f *Filter) Match(b models.Book) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	result, _, err := f.program.Eval(activation(b))
	if err != nil {
		return false, fmt.Errorf("evaluate %q on %q: %w", f.expr, b.Title, err)
	}
	matched, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: expected bool, got %T", f.expr, result.Value())
	}
	return matched, nil
}

// Apply returns the books the filter matches, in order
func (f *Filter) Apply(books []models.Book) ([]models.Book, error) {
	matched := make([]models.Book, 0, len(books))
	for _, b := range books {
		ok, err := f.Match(b)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, b)
		}
	}
	return matched, nil
}

func (f *Filter) String() string {
	return f.expr
}
