package models

import (
	"math"
	"strconv"
	"strings"
)

// WordsPerPage is the page-to-word conversion used when only a page count is known
const WordsPerPage = 275

// ParseWordCount parses user input such as "85000", "85k" or "1.5K"
func ParseWordCount(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, NewValidationError("length", "word count is required")
	}

	multiplier := 1.0
	if strings.HasSuffix(strings.ToLower(s), "k") {
		multiplier = 1000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, NewValidationError("length", "invalid word count format: %q", s)
	}
	if value < 0 {
		return 0, NewValidationError("length", "word count cannot be negative")
	}
	return int(value * multiplier), nil
}

// EstimateWordCount converts a page count into a word count rounded to the nearest thousand
func EstimateWordCount(pages int) int {
	if pages <= 0 {
		return 0
	}
	words := float64(pages * WordsPerPage)
	return int(math.RoundToEven(words/1000) * 1000)
}
