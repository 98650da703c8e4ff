package transfer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
)

// WriteMarkdown writes a reading log of the selected books, oldest first.
// Books that were never selected are left out.
func WriteMarkdown(w io.Writer, books []models.Book) error {
	read := make([]models.Book, 0, len(books))
	for _, b := range books {
		if b.Selected() {
			read = append(read, b)
		}
	}
	sort.SliceStable(read, func(i, j int) bool {
		if read[i].ReadDate != read[j].ReadDate {
			return read[i].ReadDate < read[j].ReadDate
		}
		return read[i].SelectionSeq < read[j].SelectionSeq
	})

	out := bufio.NewWriter(w)
	for _, b := range read {
		readOn := b.ReadDate
		if t, err := models.ParseDate(b.ReadDate); err == nil {
			readOn = t.Format("02/01/2006")
		}
		isbn := b.ISBN
		if strings.TrimSpace(isbn) == "" {
			isbn = models.NoISBN
		}

		fmt.Fprintf(out, "### %s, _%s_\n\n", b.Title, b.Author)
		fmt.Fprintf(out, "**ISBN:** %s\n", isbn)
		fmt.Fprintf(out, "**Words:** %d\n", b.Length)
		fmt.Fprintf(out, "**Rating:** %s\n\n", formatRating(b.Rating))
		fmt.Fprintf(out, "**Member:** %s\n", b.Member)
		fmt.Fprintf(out, "**Read:** %s\n\n", readOn)
		fmt.Fprint(out, "---\n\n")
	}
	return out.Flush()
}

// formatRating keeps one decimal for whole ratings ("4.0")
func formatRating(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
