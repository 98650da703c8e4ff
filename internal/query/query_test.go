package query

import (
	"errors"
	"testing"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []models.Book {
	return []models.Book{
		{Title: "Piranesi", Member: "Alice", Rating: 4.2, Length: 85000, Tags: []string{"fantasy"}, Score: 14},
		{Title: "Kindred", Member: "Bob", Rating: 4.3, Length: 100000, ReadDate: "2024-01-08"},
		{Title: "Emma", Member: "Alice", Rating: 3.1, Length: 160000},
	}
}

func titles(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected []string
	}{
		{name: "empty matches all", expr: "", expected: []string{"Piranesi", "Kindred", "Emma"}},
		{name: "member", expr: `member == "Alice"`, expected: []string{"Piranesi", "Emma"}},
		{name: "tag membership", expr: `"fantasy" in tags`, expected: []string{"Piranesi"}},
		{name: "selected flag", expr: `selected`, expected: []string{"Kindred"}},
		{name: "numeric", expr: `length > 90000 && rating > 4.0`, expected: []string{"Kindred"}},
		{name: "string function", expr: `title.startsWith("E")`, expected: []string{"Emma"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)

			matched, err := f.Apply(catalog())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, titles(matched))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{
		`member ==`,
		`pages > 3`,
		`rating + 1`,
	} {
		_, err := Compile(expr)
		var verr *models.ValidationError
		assert.True(t, errors.As(err, &verr), "expr %q: got %v", expr, err)
	}
}
