package club

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/selection"
	"github.com/goccy/go-json"
)

// Stats represents aggregated catalog statistics
type Stats struct {
	Profile     string    `json:"profile"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalBooks int `json:"total_books"`
	Selected   int `json:"selected"`
	Waiting    int `json:"waiting"`

	AverageScore  float64 `json:"average_score"`
	AverageRating float64 `json:"average_rating"`
	AverageLength int     `json:"average_length"`

	// LastSelection is the most recent pick, if any
	LastSelection *models.Book `json:"last_selection,omitempty"`

	Members []MemberStats `json:"members"`
	Tags    []TagStats    `json:"tags"`
}

// MemberStats contains proposal and selection counts for one member
type MemberStats struct {
	Member       string  `json:"member"`
	Proposed     int     `json:"proposed"`
	Selected     int     `json:"selected"`
	AverageScore float64 `json:"average_score"`
	LastRead     string  `json:"last_read,omitempty"`
	scores       []float64
}

// TagStats counts how often a tag was proposed and read
type TagStats struct {
	Tag      string `json:"tag"`
	Proposed int    `json:"proposed"`
	Selected int    `json:"selected"`
}

// Stats aggregates the current catalog
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	stats := AggregateStats(books)
	stats.Profile = s.profile
	stats.GeneratedAt = s.now()
	return stats, nil
}

// AggregateStats aggregates a scored catalog
func AggregateStats(books []models.Book) *Stats {
	stats := &Stats{
		TotalBooks:  len(books),
		GeneratedAt: time.Now(),
		Members:     []MemberStats{},
		Tags:        []TagStats{},
	}

	members := make(map[string]*MemberStats)
	tags := make(map[string]*TagStats)

	var scores, ratings []float64
	var totalLength int
	for _, b := range books {
		scores = append(scores, b.Score)
		ratings = append(ratings, b.Rating)
		totalLength += b.Length

		m, ok := members[b.Member]
		if !ok {
			m = &MemberStats{Member: b.Member}
			members[b.Member] = m
		}
		m.Proposed++
		m.scores = append(m.scores, b.Score)

		if b.Selected() {
			stats.Selected++
			m.Selected++
			if b.ReadDate > m.LastRead {
				m.LastRead = b.ReadDate
			}
		} else {
			stats.Waiting++
		}

		for _, tag := range b.Tags {
			t, ok := tags[tag]
			if !ok {
				t = &TagStats{Tag: tag}
				tags[tag] = t
			}
			t.Proposed++
			if b.Selected() {
				t.Selected++
			}
		}
	}

	stats.AverageScore = calculateAverage(scores)
	stats.AverageRating = calculateAverage(ratings)
	if len(books) > 0 {
		stats.AverageLength = totalLength / len(books)
	}

	if history := selection.History(books); len(history) > 0 {
		last := history[0].Book
		stats.LastSelection = &last
	}

	for _, m := range members {
		m.AverageScore = calculateAverage(m.scores)
		stats.Members = append(stats.Members, *m)
	}
	sort.Slice(stats.Members, func(i, j int) bool {
		a, b := stats.Members[i], stats.Members[j]
		if a.Selected != b.Selected {
			return a.Selected > b.Selected
		}
		return a.Member < b.Member
	})

	for _, t := range tags {
		stats.Tags = append(stats.Tags, *t)
	}
	sort.Slice(stats.Tags, func(i, j int) bool {
		a, b := stats.Tags[i], stats.Tags[j]
		if a.Proposed != b.Proposed {
			return a.Proposed > b.Proposed
		}
		return a.Tag < b.Tag
	})

	return stats
}

// calculateAverage calculates the average of a slice of values
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// PrintSummary writes a human-readable summary
func (st *Stats) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "BOOK CLUB SUMMARY (%s)\n", st.Profile)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Books: %d (%d read, %d waiting)\n", st.TotalBooks, st.Selected, st.Waiting)
	fmt.Fprintf(w, "Average Score: %.2f\n", st.AverageScore)
	fmt.Fprintf(w, "Average Rating: %.2f\n", st.AverageRating)
	fmt.Fprintf(w, "Average Length: %d words\n", st.AverageLength)
	if st.LastSelection != nil {
		fmt.Fprintf(w, "Last Selection: %s by %s (%s, proposed by %s)\n",
			st.LastSelection.Title, st.LastSelection.Author, st.LastSelection.ReadDate, st.LastSelection.Member)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "MEMBERS")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, m := range st.Members {
		fmt.Fprintf(w, "%-20s proposed %3d  read %3d  avg score %7.2f", m.Member, m.Proposed, m.Selected, m.AverageScore)
		if m.LastRead != "" {
			fmt.Fprintf(w, "  last %s", m.LastRead)
		}
		fmt.Fprintln(w)
	}

	if len(st.Tags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "TAGS")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, t := range st.Tags {
			fmt.Fprintf(w, "%-20s proposed %3d  read %3d\n", t.Tag, t.Proposed, t.Selected)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

// WriteJSON encodes the statistics as indented JSON
func (st *Stats) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(st); err != nil {
		return fmt.Errorf("failed to encode stats to JSON: %w", err)
	}
	return nil
}

// SaveToJSON saves the statistics to a JSON file
func (st *Stats) SaveToJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return st.WriteJSON(file)
}
