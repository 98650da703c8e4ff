package club

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/fabula-rasa/fabula/internal/isbn"
	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/scoring"
	"github.com/fabula-rasa/fabula/internal/selection"
)

// BookUpdate lists the fields to change on an existing book. Nil fields
// are left as they are.
type BookUpdate struct {
	Author *string
	ISBN   *string
	// Tags replaces the tag set; AddTags and RemoveTags are applied after it
	Tags       *[]string
	AddTags    []string
	RemoveTags []string
	// Length is a word count such as "85000" or "85k"
	Length *string
	// Pages estimates the word count; ignored when Length is set
	Pages  *int
	Rating *float64
	Member *string
	// ReadDate schedules the book; an empty string returns it to the pool
	ReadDate *string
}

// findForEdit prefers a book still waiting, then the most recent selection
func findForEdit(books []models.Book, title string) int {
	if idx := findUnselected(books, title); idx >= 0 {
		return idx
	}
	key := models.NormalizeTitle(title)
	for _, e := range selection.History(books) {
		if e.Book.NormalizedTitle() == key {
			return e.Index
		}
	}
	return -1
}

func (u BookUpdate) apply(book models.Book) (models.Book, error) {
	if u.Author != nil {
		book.Author = strings.TrimSpace(*u.Author)
		if book.Author == "" {
			book.Author = models.DefaultAuthor
		}
	}

	if u.ISBN != nil {
		raw := strings.TrimSpace(*u.ISBN)
		book.ISBN = models.NoISBN
		if raw != "" && !strings.EqualFold(raw, models.NoISBN) {
			normalized, ok := isbn.Normalize(raw)
			if !ok {
				return book, models.NewValidationError("isbn", "%q is not a valid ISBN-10 or ISBN-13", raw)
			}
			book.ISBN = normalized
		}
	}

	tags := book.Tags
	if u.Tags != nil {
		tags = *u.Tags
	}
	tags = append(append([]string{}, tags...), u.AddTags...)
	if len(u.RemoveTags) > 0 {
		remove := make(map[string]bool, len(u.RemoveTags))
		for _, tag := range u.RemoveTags {
			remove[strings.TrimSpace(tag)] = true
		}
		kept := tags[:0]
		for _, tag := range tags {
			if !remove[strings.TrimSpace(tag)] {
				kept = append(kept, tag)
			}
		}
		tags = kept
	}
	book.Tags = models.NormalizeTags(tags)

	switch {
	case u.Length != nil:
		length, err := models.ParseWordCount(*u.Length)
		if err != nil {
			return book, err
		}
		book.Length = length
	case u.Pages != nil:
		if *u.Pages <= 0 {
			return book, models.NewValidationError("pages", "must be positive")
		}
		book.Length = models.EstimateWordCount(*u.Pages)
	}

	if u.Rating != nil {
		if math.IsNaN(*u.Rating) || math.IsInf(*u.Rating, 0) || *u.Rating < 0 {
			return book, models.NewValidationError("rating", "must be a non-negative number")
		}
		book.Rating = *u.Rating
	}

	if u.Member != nil {
		book.Member = strings.TrimSpace(*u.Member)
	}

	if u.ReadDate != nil {
		readDate := strings.TrimSpace(*u.ReadDate)
		if readDate != "" {
			if _, err := models.ParseDate(readDate); err != nil {
				return book, models.NewValidationError("read_date", "expected YYYY-MM-DD, got %q", readDate)
			}
		}
		book.ReadDate = readDate
	}
	return book, nil
}

// UpdateBook edits the book with a matching title, preferring one that is
// still waiting. The date it was added is kept and the score recomputed.
func (s *Service) UpdateBook(ctx context.Context, title string, u BookUpdate) (models.Book, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return models.Book{}, err
	}

	idx := findForEdit(books, title)
	if idx < 0 {
		return models.Book{}, fmt.Errorf("%w: %q", ErrBookNotFound, title)
	}
	before := books[idx]

	book, err := u.apply(before)
	if err != nil {
		return models.Book{}, err
	}

	switch {
	case !book.Selected():
		book.SelectionSeq = 0
		others := append(books[:idx:idx], books[idx+1:]...)
		if before.Selected() && findUnselected(others, book.Title) >= 0 {
			return models.Book{}, models.NewValidationError("read_date", "%q is already waiting in the catalog", book.Title)
		}
	case !before.Selected():
		var seq int64
		for _, b := range books {
			seq = max(seq, b.SelectionSeq)
		}
		book.SelectionSeq = seq + 1
	}

	if err := book.Validate(); err != nil {
		return models.Book{}, err
	}
	book.Score = scoring.Score(book, s.Config())
	books[idx] = book

	if err := s.store.WriteCatalog(ctx, books); err != nil {
		return models.Book{}, err
	}

	slog.Info("Book updated", "profile", s.profile, "title", book.Title, "score", book.Score)
	return book, nil
}
