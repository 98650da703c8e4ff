// Package transfer moves catalogs in and out of files: CSV, JSONL and
// Parquet for round trips, Markdown for a reading log.
package transfer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// Format names a file layout
type Format string

const (
	CSV      Format = "csv"
	JSONL    Format = "jsonl"
	Parquet  Format = "parquet"
	Markdown Format = "markdown"
)

// maxLineSize bounds a single JSONL record
const maxLineSize = 1024 * 1024

// FormatFromPath picks a format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return CSV, nil
	case ".jsonl", ".json":
		return JSONL, nil
	case ".parquet":
		return Parquet, nil
	case ".md", ".markdown":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unsupported file format: %q (supported: .csv, .jsonl, .parquet, .md)", ext)
	}
}

// Loader reads books from a catalog file
type Loader struct {
	path string
}

// NewLoader creates a loader for path
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every book in the file. The format follows the extension.
func (l *Loader) Load() ([]models.Book, error) {
	format, err := FormatFromPath(l.path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	slog.Debug("Loading books", "path", l.path, "format", format, "size_bytes", info.Size())

	var books []models.Book
	switch format {
	case CSV:
		books, err = ReadCSV(file)
	case JSONL:
		books, err = ReadJSONL(file)
	case Parquet:
		books, err = ReadParquet(file, info.Size())
	default:
		return nil, fmt.Errorf("cannot import %s files", format)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Finished loading books", "path", l.path, "books", len(books))
	return books, nil
}

// ReadJSONL decodes one book per non-blank line
func ReadJSONL(r io.Reader) ([]models.Book, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	books := make([]models.Book, 0)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var book models.Book
		if err := json.Unmarshal(line, &book); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		books = append(books, book)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL: %w", err)
	}
	return books, nil
}

// WriteJSONL encodes one book per line
func WriteJSONL(w io.Writer, books []models.Book) error {
	encoder := json.NewEncoder(w)
	for _, b := range books {
		if err := encoder.Encode(b); err != nil {
			return fmt.Errorf("encode %q: %w", b.Title, err)
		}
	}
	return nil
}

// ReadParquet reads every row of a Parquet file in batches
func ReadParquet(r io.ReaderAt, size int64) ([]models.Book, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[models.Book](pf)
	defer reader.Close()

	books := make([]models.Book, 0, pf.NumRows())
	rows := make([]models.Book, 128)
	for {
		n, err := reader.Read(rows)
		books = append(books, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return books, nil
}

// WriteParquet writes books as a single Parquet file
func WriteParquet(w io.Writer, books []models.Book) error {
	writer := parquet.NewGenericWriter[models.Book](w)
	if _, err := writer.Write(books); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// Export writes books in the given format
func Export(w io.Writer, format Format, books []models.Book) error {
	switch format {
	case CSV:
		return WriteCSV(w, books)
	case JSONL:
		return WriteJSONL(w, books)
	case Parquet:
		return WriteParquet(w, books)
	case Markdown:
		return WriteMarkdown(w, books)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
}
