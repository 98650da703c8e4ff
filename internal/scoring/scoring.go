// Package scoring computes the base score of a book from its rating and length.
//
// Every function is pure: the weights are passed in explicitly and nothing is
// read from disk, so the same inputs always yield the same score.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/fabula-rasa/fabula/internal/config"
	"github.com/fabula-rasa/fabula/internal/models"
)

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RatingScore returns the points earned by a rating above the baseline.
// Ratings at or below the baseline contribute exactly 0.
func RatingScore(rating float64, cfg config.Config) float64 {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0
	}
	score := Round2((rating - cfg.Rating.Baseline) * cfg.Rating.Multiplier)
	if score <= 0 {
		return 0
	}
	return score
}

// LengthScore returns minus the number of penalty steps (rounded up) between
// length and the target. Too short and too long are penalized alike.
func LengthScore(length int, cfg config.Config) int {
	step := cfg.Length.PenaltyStep
	if step <= 0 || length < 0 {
		return 0
	}
	distance := cfg.Length.Target - length
	if distance < 0 {
		distance = -distance
	}
	return -((distance + step - 1) / step)
}

// Score returns the total base score of a book
func Score(book models.Book, cfg config.Config) float64 {
	return Round2(RatingScore(book.Rating, cfg) + float64(LengthScore(book.Length, cfg)))
}

// ScoreFields scores loosely typed input such as an imported row.
// A rating or length that does not parse contributes 0.
func ScoreFields(rating, length string, cfg config.Config) float64 {
	var ratingScore float64
	if r, err := strconv.ParseFloat(strings.TrimSpace(rating), 64); err == nil {
		ratingScore = RatingScore(r, cfg)
	}

	var lengthScore int
	if l, err := strconv.Atoi(strings.TrimSpace(length)); err == nil {
		lengthScore = LengthScore(l, cfg)
	}

	return Round2(ratingScore + float64(lengthScore))
}

// CalculateScores returns a copy of books with Score set on each entry
func CalculateScores(books []models.Book, cfg config.Config) []models.Book {
	scored := make([]models.Book, len(books))
	for i, book := range books {
		book.Score = Score(book, cfg)
		scored[i] = book
	}
	return scored
}
