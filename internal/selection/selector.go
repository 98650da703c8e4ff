package selection

import (
	"sort"

	"github.com/fabula-rasa/fabula/internal/config"
	"github.com/fabula-rasa/fabula/internal/models"
)

// Result is an eligible candidate with its adjusted score
type Result struct {
	Book models.Book
	// Index is the book's position in the catalog passed to the selector
	Index         int
	Adjusted      float64
	MemberPenalty float64
	TagAdjustment float64
}

// Rank returns every eligible book with its adjusted score, best first.
// Books with equal adjusted scores keep their catalog order.
//
// A book is eligible when it has no read date and its normalized title does
// not appear in the selection history.
func Rank(catalog []models.Book, cfg config.Config) []Result {
	history := History(catalog)
	selected := SelectedTitles(history)
	members := MemberPenalties(history, cfg)
	tags := TagAdjustments(history, cfg)

	results := make([]Result, 0, len(catalog))
	for i, book := range catalog {
		if book.Selected() || selected[book.NormalizedTitle()] {
			continue
		}

		var tagTotal float64
		for _, tag := range models.NormalizeTags(book.Tags) {
			tagTotal += tags[tag]
		}
		penalty := members[book.Member]

		results = append(results, Result{
			Book:          book,
			Index:         i,
			Adjusted:      book.Score + penalty + tagTotal,
			MemberPenalty: penalty,
			TagAdjustment: tagTotal,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Adjusted > results[j].Adjusted
	})
	return results
}

// SelectTopChoice returns the eligible book with the highest adjusted score.
// Ties go to the book that comes first in the catalog. The second return
// value is false when no book is eligible.
func SelectTopChoice(catalog []models.Book, cfg config.Config) (Result, bool) {
	ranked := Rank(catalog, cfg)
	if len(ranked) == 0 {
		return Result{}, false
	}
	return ranked[0], true
}
