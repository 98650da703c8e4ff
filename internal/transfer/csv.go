package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
)

// csvHeader lists the exported columns in order
var csvHeader = []string{
	"title", "author", "isbn", "tags", "length", "rating",
	"member", "score", "date_added", "read_date", "selection_seq",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes every column of every book with a header row
func WriteCSV(w io.Writer, books []models.Book) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range books {
		row := []string{
			b.Title,
			b.Author,
			b.ISBN,
			models.JoinTags(b.Tags),
			strconv.Itoa(b.Length),
			formatFloat(b.Rating),
			b.Member,
			formatFloat(b.Score),
			b.DateAdded,
			b.ReadDate,
			strconv.FormatInt(b.SelectionSeq, 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV reads books from a CSV file with a header row. Columns are
// matched by name; unknown columns are ignored and only title is required.
func ReadCSV(r io.Reader) ([]models.Book, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, models.NewValidationError("title", "CSV header has no title column")
	}

	books := make([]models.Book, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		book, err := bookFromRow(get)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		books = append(books, book)
	}
	return books, nil
}

func bookFromRow(get func(string) string) (models.Book, error) {
	book := models.Book{
		Title:     get("title"),
		Author:    get("author"),
		ISBN:      get("isbn"),
		Tags:      models.ParseTags(get("tags")),
		Member:    get("member"),
		DateAdded: get("date_added"),
		ReadDate:  get("read_date"),
	}

	if raw := get("length"); raw != "" {
		length, err := models.ParseWordCount(raw)
		if err != nil {
			return book, err
		}
		book.Length = length
	}
	if raw := get("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return book, models.NewValidationError("rating", "invalid rating %q", raw)
		}
		book.Rating = rating
	}
	if raw := get("score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return book, models.NewValidationError("score", "invalid score %q", raw)
		}
		book.Score = score
	}
	if raw := get("selection_seq"); raw != "" {
		seq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return book, models.NewValidationError("selection_seq", "invalid sequence %q", raw)
		}
		book.SelectionSeq = seq
	}
	return book, nil
}
