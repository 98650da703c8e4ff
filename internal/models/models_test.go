package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWordCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{name: "plain number", input: "85000", expected: 85000},
		{name: "thousands separator", input: "85,000", expected: 85000},
		{name: "k suffix", input: "85k", expected: 85000},
		{name: "upper K with fraction", input: "1.5K", expected: 1500},
		{name: "surrounding space", input: "  42000 ", expected: 42000},
		{name: "zero", input: "0", expected: 0},
		{name: "empty", input: "", wantErr: true},
		{name: "not numeric", input: "long", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "bare suffix", input: "k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseWordCount(tt.input)
			if tt.wantErr {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
				assert.Equal(t, "length", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEstimateWordCount(t *testing.T) {
	tests := []struct {
		pages    int
		expected int
	}{
		{pages: 0, expected: 0},
		{pages: 100, expected: 28000},
		{pages: 200, expected: 55000},
		{pages: 320, expected: 88000},
		{pages: -3, expected: 0},
	}

	for _, tt := range tests {
		if got := EstimateWordCount(tt.pages); got != tt.expected {
			t.Errorf("EstimateWordCount(%d) = %d, expected %d", tt.pages, got, tt.expected)
		}
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{"fantasy", "sci-fi"}, ParseTags(" sci-fi, fantasy ,,sci-fi"))
	assert.Equal(t, "fantasy,sci-fi", JoinTags([]string{"sci-fi", "fantasy"}))
	assert.Equal(t, JoinTags([]string{"b", "a"}), JoinTags([]string{"a", "b"}))
}

func TestNormalizeTitle(t *testing.T) {
	book := Book{Title: "  The Left Hand of Darkness "}
	assert.Equal(t, "the left hand of darkness", book.NormalizedTitle())
	assert.False(t, book.Selected())

	book.ReadDate = "2024-03-04"
	assert.True(t, book.Selected())
}

func TestBookValidate(t *testing.T) {
	valid := Book{
		Title:     "Piranesi",
		Author:    "Susanna Clarke",
		ISBN:      "9781635575637",
		Length:    85000,
		Rating:    4.2,
		DateAdded: "2024-01-10",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(b *Book)
		field  string
	}{
		{name: "blank title", mutate: func(b *Book) { b.Title = "   " }, field: "title"},
		{name: "missing author", mutate: func(b *Book) { b.Author = "" }, field: "author"},
		{name: "negative length", mutate: func(b *Book) { b.Length = -1 }, field: "length"},
		{name: "nan rating", mutate: func(b *Book) { b.Rating = math.NaN() }, field: "rating"},
		{name: "bad date added", mutate: func(b *Book) { b.DateAdded = "10/01/2024" }, field: "date_added"},
		{name: "bad read date", mutate: func(b *Book) { b.ReadDate = "soon" }, field: "read_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid length.penalty_step: must be greater than 0, got 0",
		(&ValidationError{Field: "length.penalty_step", Message: "must be greater than 0, got 0"}).Error())
	assert.Equal(t, "validation failed: bad input", (&ValidationError{Message: "bad input"}).Error())
}
