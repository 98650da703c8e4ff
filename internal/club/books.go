package club

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/fabula-rasa/fabula/internal/isbn"
	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/scoring"
	"github.com/fabula-rasa/fabula/internal/selection"
)

// NewBook is a proposal as typed by a member
type NewBook struct {
	Title  string
	Author string
	ISBN   string
	Tags   []string
	// Length is a word count such as "85000" or "85k"
	Length string
	// Pages is used to estimate the word count when Length is empty
	Pages  int
	Rating float64
	Member string
}

// normalize turns a proposal into a catalog book, or reports the first
// field that is not usable
func (n NewBook) normalize(today string) (models.Book, error) {
	book := models.Book{
		Title:     strings.TrimSpace(n.Title),
		Author:    strings.TrimSpace(n.Author),
		Tags:      models.NormalizeTags(n.Tags),
		Rating:    n.Rating,
		Member:    strings.TrimSpace(n.Member),
		DateAdded: today,
		ISBN:      models.NoISBN,
	}
	if book.Title == "" {
		return book, models.NewValidationError("title", "is required")
	}
	if book.Author == "" {
		book.Author = models.DefaultAuthor
	}

	if raw := strings.TrimSpace(n.ISBN); raw != "" && !strings.EqualFold(raw, models.NoISBN) {
		normalized, ok := isbn.Normalize(raw)
		if !ok {
			return book, models.NewValidationError("isbn", "%q is not a valid ISBN-10 or ISBN-13", raw)
		}
		book.ISBN = normalized
	}

	switch {
	case strings.TrimSpace(n.Length) != "":
		length, err := models.ParseWordCount(n.Length)
		if err != nil {
			return book, err
		}
		book.Length = length
	case n.Pages > 0:
		book.Length = models.EstimateWordCount(n.Pages)
	default:
		return book, models.NewValidationError("length", "word count or page count is required")
	}

	if math.IsNaN(n.Rating) || math.IsInf(n.Rating, 0) || n.Rating < 0 {
		return book, models.NewValidationError("rating", "must be a non-negative number")
	}
	return book, book.Validate()
}

func findUnselected(books []models.Book, title string) int {
	key := models.NormalizeTitle(title)
	for i, b := range books {
		if !b.Selected() && b.NormalizedTitle() == key {
			return i
		}
	}
	return -1
}

// AddBook validates a proposal, scores it and appends it to the catalog.
// A title already waiting in the catalog is rejected.
func (s *Service) AddBook(ctx context.Context, n NewBook) (models.Book, error) {
	book, err := n.normalize(models.FormatDate(s.now()))
	if err != nil {
		return models.Book{}, err
	}

	books, err := s.Catalog(ctx)
	if err != nil {
		return models.Book{}, err
	}
	if findUnselected(books, book.Title) >= 0 {
		return models.Book{}, models.NewValidationError("title", "%q is already in the catalog", book.Title)
	}

	book.Score = scoring.Score(book, s.Config())
	if err := s.store.WriteCatalog(ctx, append(books, book)); err != nil {
		return models.Book{}, err
	}

	slog.Info("Book added", "profile", s.profile, "title", book.Title, "member", book.Member, "score", book.Score)
	return book, nil
}

// RemoveBook deletes the first book with a matching title, preferring one
// that has not been read. It reports whether a book was removed.
func (s *Service) RemoveBook(ctx context.Context, title string) (models.Book, bool, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return models.Book{}, false, err
	}

	idx := findUnselected(books, title)
	if idx < 0 {
		key := models.NormalizeTitle(title)
		for i, b := range books {
			if b.NormalizedTitle() == key {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return models.Book{}, false, nil
	}

	removed := books[idx]
	remaining := append(books[:idx:idx], books[idx+1:]...)
	if err := s.store.WriteCatalog(ctx, remaining); err != nil {
		return models.Book{}, false, err
	}

	slog.Info("Book removed", "profile", s.profile, "title", removed.Title)
	return removed, true, nil
}

// Rank returns every eligible book, best first
func (s *Service) Rank(ctx context.Context) ([]selection.Result, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return selection.Rank(books, s.Config()), nil
}

// Preview returns the book Pick would choose without changing anything
func (s *Service) Preview(ctx context.Context) (selection.Result, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return selection.Result{}, err
	}
	result, ok := selection.SelectTopChoice(books, s.Config())
	if !ok {
		return selection.Result{}, ErrNoAvailableBooks
	}
	return result, nil
}

// Pick selects the next book, stamps it with readDate (or the next meeting
// when empty) and persists the catalog
func (s *Service) Pick(ctx context.Context, readDate string) (selection.Result, error) {
	if readDate == "" {
		readDate = s.meetings.NextDate(s.now())
	} else if _, err := models.ParseDate(readDate); err != nil {
		return selection.Result{}, models.NewValidationError("read_date", "expected YYYY-MM-DD, got %q", readDate)
	}

	books, err := s.Catalog(ctx)
	if err != nil {
		return selection.Result{}, err
	}

	result, ok := selection.SelectTopChoice(books, s.Config())
	if !ok {
		return selection.Result{}, ErrNoAvailableBooks
	}

	var seq int64
	for _, b := range books {
		seq = max(seq, b.SelectionSeq)
	}

	books[result.Index].ReadDate = readDate
	books[result.Index].SelectionSeq = seq + 1
	if err := s.store.WriteCatalog(ctx, books); err != nil {
		return selection.Result{}, err
	}
	result.Book = books[result.Index]

	slog.Info("Book selected",
		"profile", s.profile,
		"title", result.Book.Title,
		"member", result.Book.Member,
		"read_date", readDate,
		"adjusted_score", result.Adjusted,
	)
	return result, nil
}

// Unselect clears the read date of the most recent selection with a
// matching title, returning the book to the pool
func (s *Service) Unselect(ctx context.Context, title string) (models.Book, bool, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return models.Book{}, false, err
	}

	key := models.NormalizeTitle(title)
	for _, e := range selection.History(books) {
		if e.Book.NormalizedTitle() != key {
			continue
		}
		books[e.Index].ReadDate = ""
		books[e.Index].SelectionSeq = 0
		if err := s.store.WriteCatalog(ctx, books); err != nil {
			return models.Book{}, false, err
		}
		slog.Info("Selection cleared", "profile", s.profile, "title", e.Book.Title)
		return books[e.Index], true, nil
	}
	return models.Book{}, false, nil
}

// History returns the selected books, most recent first
func (s *Service) History(ctx context.Context) ([]selection.Entry, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return selection.History(books), nil
}

// Import appends books loaded from a file. Missing fields are defaulted,
// scores recomputed, and titles already waiting in the catalog skipped.
// It returns the number of books added.
func (s *Service) Import(ctx context.Context, incoming []models.Book) (int, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return 0, err
	}

	today := models.FormatDate(s.now())
	added := 0
	for _, b := range incoming {
		b.Title = strings.TrimSpace(b.Title)
		if strings.TrimSpace(b.Author) == "" {
			b.Author = models.DefaultAuthor
		}
		if b.DateAdded == "" {
			b.DateAdded = today
		}
		b.ISBN = normalizeImportedISBN(b.ISBN)
		b.Tags = models.NormalizeTags(b.Tags)
		if err := b.Validate(); err != nil {
			return 0, err
		}
		if b.Selected() && b.SelectionSeq == 0 {
			b.SelectionSeq = -1
		}
		if !b.Selected() && findUnselected(books, b.Title) >= 0 {
			slog.Debug("Skipping duplicate", "title", b.Title)
			continue
		}
		b.Score = scoring.Score(b, s.Config())
		books = append(books, b)
		added++
	}

	renumberSelections(books)
	if err := s.store.WriteCatalog(ctx, books); err != nil {
		return 0, err
	}
	slog.Info("Books imported", "profile", s.profile, "added", added, "skipped", len(incoming)-added)
	return added, nil
}

func normalizeImportedISBN(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, models.NoISBN) {
		return models.NoISBN
	}
	if normalized, ok := isbn.Normalize(raw); ok {
		return normalized
	}
	return raw
}

// renumberSelections gives imported selections (marked -1) sequence
// numbers after every existing one, in read date order
func renumberSelections(books []models.Book) {
	var next int64
	for _, b := range books {
		next = max(next, b.SelectionSeq)
	}

	history := selection.History(books)
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if books[e.Index].SelectionSeq == -1 {
			next++
			books[e.Index].SelectionSeq = next
		}
	}
}
