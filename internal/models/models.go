package models

import (
	"sort"
	"strings"
)

// DefaultAuthor is used when a book is proposed without an author
const DefaultAuthor = "Unknown"

// NoISBN marks a book stored without a usable ISBN
const NoISBN = "N/A"

// Book represents a catalog entry proposed by a club member
type Book struct {
	Title        string   `json:"title" parquet:"title" validate:"required"`
	Author       string   `json:"author" parquet:"author" validate:"required"`
	ISBN         string   `json:"isbn" parquet:"isbn"`
	Tags         []string `json:"tags" parquet:"tags,list"`
	Length       int      `json:"length" parquet:"length" validate:"gte=0"`
	Rating       float64  `json:"rating" parquet:"rating"`
	Member       string   `json:"member" parquet:"member"`
	Score        float64  `json:"score" parquet:"score"`
	DateAdded    string   `json:"date_added" parquet:"date_added" validate:"required,datetime=2006-01-02"`
	ReadDate     string   `json:"read_date,omitempty" parquet:"read_date" validate:"omitempty,datetime=2006-01-02"`
	SelectionSeq int64    `json:"selection_seq,omitempty" parquet:"selection_seq" validate:"gte=0"`
}

// Selected reports whether the book has been picked (or scheduled) already
func (b Book) Selected() bool {
	return strings.TrimSpace(b.ReadDate) != ""
}

// NormalizedTitle returns the title used for duplicate and history matching
func (b Book) NormalizedTitle() string {
	return NormalizeTitle(b.Title)
}

// NormalizeTitle lower-cases and trims a title
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ParseTags splits a comma-separated tag string into a sorted, de-duplicated set
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims, drops empty labels, de-duplicates and sorts
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}

// JoinTags serializes a tag set the way the catalog stores it
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}
