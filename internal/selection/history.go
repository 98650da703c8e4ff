// Package selection picks the next book to read.
//
// It derives the selection history from the catalog, turns the most recent
// selections into member penalties and tag adjustments, and returns the
// eligible book with the highest adjusted score. Nothing here performs I/O;
// the caller stamps and persists the chosen book.
package selection

import (
	"sort"

	"github.com/fabula-rasa/fabula/internal/models"
)

// RecentWindow is the number of past selections that influence the next pick
const RecentWindow = 3

// Entry is a selected book and its position in the catalog
type Entry struct {
	Book  models.Book
	Index int
}

// History returns the selected books, most recent first.
//
// Books sharing a read date are ordered by SelectionSeq, then by catalog
// position, both descending, so the order never depends on sort stability.
func History(catalog []models.Book) []Entry {
	history := make([]Entry, 0)
	for i, book := range catalog {
		if book.Selected() {
			history = append(history, Entry{Book: book, Index: i})
		}
	}

	sort.Slice(history, func(i, j int) bool {
		a, b := history[i], history[j]
		if a.Book.ReadDate != b.Book.ReadDate {
			return a.Book.ReadDate > b.Book.ReadDate
		}
		if a.Book.SelectionSeq != b.Book.SelectionSeq {
			return a.Book.SelectionSeq > b.Book.SelectionSeq
		}
		return a.Index > b.Index
	})
	return history
}

// Recent returns at most n entries from the front of history
func Recent(history []Entry, n int) []Entry {
	if n < 0 {
		n = 0
	}
	if len(history) < n {
		return history
	}
	return history[:n]
}

// SelectedTitles returns the normalized titles of every history entry
func SelectedTitles(history []Entry) map[string]bool {
	titles := make(map[string]bool, len(history))
	for _, e := range history {
		titles[e.Book.NormalizedTitle()] = true
	}
	return titles
}
