package transfer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooks() []models.Book {
	return []models.Book{
		{
			Title: "Piranesi", Author: "Susanna Clarke", ISBN: "9781635575637",
			Tags: []string{"fantasy", "mystery"}, Length: 85000, Rating: 4.2,
			Member: "Alice", Score: 15, DateAdded: "2024-01-10",
		},
		{
			Title: "Kindred", Author: "Octavia E. Butler", ISBN: models.NoISBN,
			Tags: []string{}, Length: 100000, Rating: 4,
			Member: "Bob", Score: 8, DateAdded: "2023-11-02",
			ReadDate: "2024-02-05", SelectionSeq: 2,
		},
		{
			Title: "Emma, Revisited", Author: "Jane Austen", ISBN: "9780141439587",
			Tags: []string{"classic"}, Length: 160000, Rating: 3.9,
			Member: "Carol", Score: 2.5, DateAdded: "2023-10-01",
			ReadDate: "2024-01-08", SelectionSeq: 1,
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{path: "books.csv", expected: CSV},
		{path: "books.JSONL", expected: JSONL},
		{path: "books.json", expected: JSONL},
		{path: "/tmp/books.parquet", expected: Parquet},
		{path: "log.md", expected: Markdown},
		{path: "books.xlsx", wantErr: true},
		{path: "books", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBooks()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Equal(t, `Piranesi,Susanna Clarke,9781635575637,"fantasy,mystery",85000,4.2,Alice,15,2024-01-10,,0`, lines[1])

	books, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleBooks(), books)
}

func TestReadCSVLenientColumns(t *testing.T) {
	input := "ID,Title,Author,Length,Rating,Extra\n" +
		"7,The Hobbit,Tolkien,\"95,000\",4.3,ignored\n" +
		"8,Short,,12k,,\n"

	books, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.Equal(t, 95000, books[0].Length)
	assert.Equal(t, 4.3, books[0].Rating)
	assert.Equal(t, 12000, books[1].Length)
	assert.Empty(t, books[1].Author)
	assert.Equal(t, []string{}, books[1].Tags)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "no title column", input: "author,length\nX,100\n", field: "title"},
		{name: "bad length", input: "title,length\nX,lots\n", field: "length"},
		{name: "bad rating", input: "title,length,rating\nX,100,great\n", field: "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	books, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestJSONLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, sampleBooks()))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	books, err := ReadJSONL(strings.NewReader(buf.String() + "\n\n"))
	require.NoError(t, err)
	assert.Equal(t, sampleBooks(), books)
}

func TestReadJSONLReportsLine(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"title\": \"ok\"}\n{broken\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParquetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, sampleBooks()))

	data := buf.Bytes()
	books, err := ReadParquet(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, books, 3)

	for i, expected := range sampleBooks() {
		got := books[i]
		assert.Equal(t, expected.Title, got.Title)
		assert.Equal(t, expected.Length, got.Length)
		assert.Equal(t, expected.Rating, got.Rating)
		assert.Equal(t, expected.ReadDate, got.ReadDate)
		assert.Equal(t, expected.SelectionSeq, got.SelectionSeq)
		assert.Equal(t, len(expected.Tags), len(got.Tags))
	}
	assert.Equal(t, []string{"fantasy", "mystery"}, books[0].Tags)
}

func TestLoaderDetectsFormat(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"books.csv", "books.jsonl", "books.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			format, err := FormatFromPath(path)
			require.NoError(t, err)

			f, err := os.Create(path)
			require.NoError(t, err)
			require.NoError(t, Export(f, format, sampleBooks()))
			require.NoError(t, f.Close())

			books, err := NewLoader(path).Load()
			require.NoError(t, err)
			require.Len(t, books, 3)
			assert.Equal(t, "Kindred", books[1].Title)
		})
	}

	_, err := NewLoader(filepath.Join(dir, "log.md")).Load()
	assert.Error(t, err, "markdown is export only")
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleBooks()))

	expected := "### Emma, Revisited, _Jane Austen_\n\n" +
		"**ISBN:** 9780141439587\n" +
		"**Words:** 160000\n" +
		"**Rating:** 3.9\n\n" +
		"**Member:** Carol\n" +
		"**Read:** 08/01/2024\n\n" +
		"---\n\n" +
		"### Kindred, _Octavia E. Butler_\n\n" +
		"**ISBN:** N/A\n" +
		"**Words:** 100000\n" +
		"**Rating:** 4.0\n\n" +
		"**Member:** Bob\n" +
		"**Read:** 05/02/2024\n\n" +
		"---\n\n"
	assert.Equal(t, expected, buf.String())
}
