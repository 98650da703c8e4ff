package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fabula-rasa/fabula/internal/models"
)

type theme struct {
	header  lipgloss.Style
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	border  lipgloss.Style
}

var styles = theme{
	header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	title:   lipgloss.NewStyle().Bold(true),
	muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	border:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, styles.muted.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t.String())
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func bookRows(books []models.Book) [][]string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			b.Title,
			b.Author,
			b.Member,
			strconv.Itoa(b.Length),
			formatRating(b.Rating),
			formatScore(b.Score),
			strings.Join(b.Tags, ", "),
			b.DateAdded,
			b.ReadDate,
		})
	}
	return rows
}

var bookHeaders = []string{"Title", "Author", "Member", "Words", "Rating", "Score", "Tags", "Added", "Read"}

func describeBook(w io.Writer, b models.Book) {
	fmt.Fprintf(w, "%s by %s\n", styles.title.Render(b.Title), b.Author)
	fmt.Fprintf(w, "  proposed by %s, %d words, rated %s, score %s\n",
		b.Member, b.Length, formatRating(b.Rating), formatScore(b.Score))
	if b.ISBN != "" && b.ISBN != models.NoISBN {
		fmt.Fprintf(w, "  ISBN %s\n", b.ISBN)
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(w, "  tags: %s\n", strings.Join(b.Tags, ", "))
	}
}
