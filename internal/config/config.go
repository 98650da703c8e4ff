// Package config holds the per-profile scoring weights.
//
// A Config is plain data: the scoring engine and the penalty calculator take
// it as an explicit argument and never read it from disk themselves. Load and
// Save move it between memory and the profile's config.yaml.
package config

import (
	"math"

	"github.com/fabula-rasa/fabula/internal/models"
)

// Config represents the scoring weights of one profile
type Config struct {
	Rating          RatingConfig      `yaml:"rating"`
	Length          LengthConfig      `yaml:"length"`
	MemberPenalties RecencyWeights    `yaml:"member_penalties"`
	TagAdjustments  *TagRecencyConfig `yaml:"tag_adjustments,omitempty"`
}

// RatingConfig maps a star rating onto score points
type RatingConfig struct {
	// Baseline is the rating that contributes zero points
	Baseline float64 `yaml:"baseline"`
	// Multiplier is applied to the distance above the baseline
	Multiplier float64 `yaml:"multiplier" validate:"gte=0"`
}

// LengthConfig penalizes books further from the target word count
type LengthConfig struct {
	// Target is the word count that contributes zero points
	Target int `yaml:"target" validate:"gt=0"`
	// PenaltyStep is the word-count distance worth one penalty point
	PenaltyStep int `yaml:"penalty_step" validate:"gt=0"`
}

// RecencyWeights holds one weight per recent selection slot, most recent first
type RecencyWeights struct {
	LastSelection float64 `yaml:"last_selection" validate:"lte=0"`
	SecondLast    float64 `yaml:"second_last" validate:"lte=0"`
	ThirdLast     float64 `yaml:"third_last" validate:"lte=0"`
}

// TagRecencyConfig holds optional tag adjustments. Unlike member penalties
// these may be positive to favour a tag after it was read.
type TagRecencyConfig struct {
	LastSelection float64 `yaml:"last_selection"`
	SecondLast    float64 `yaml:"second_last"`
	ThirdLast     float64 `yaml:"third_last"`
}

// Slots returns the weights ordered most recent first
func (w RecencyWeights) Slots() [3]float64 {
	return [3]float64{w.LastSelection, w.SecondLast, w.ThirdLast}
}

// Slots returns the adjustments ordered most recent first
func (t TagRecencyConfig) Slots() [3]float64 {
	return [3]float64{t.LastSelection, t.SecondLast, t.ThirdLast}
}

// Default returns the weights a new profile starts with
func Default() Config {
	return Config{
		Rating: RatingConfig{
			Baseline:   1.0,
			Multiplier: 10,
		},
		Length: LengthConfig{
			Target:      50000,
			PenaltyStep: 2000,
		},
		MemberPenalties: RecencyWeights{
			LastSelection: -15,
			SecondLast:    -10,
			ThirdLast:     -5,
		},
	}
}

// Validate checks every key against its allowed range
func (c Config) Validate() error {
	type field struct {
		key   string
		value float64
	}
	floats := []field{
		{"rating.baseline", c.Rating.Baseline},
		{"rating.multiplier", c.Rating.Multiplier},
		{"member_penalties.last_selection", c.MemberPenalties.LastSelection},
		{"member_penalties.second_last", c.MemberPenalties.SecondLast},
		{"member_penalties.third_last", c.MemberPenalties.ThirdLast},
	}
	if c.TagAdjustments != nil {
		floats = append(floats,
			field{"tag_adjustments.last_selection", c.TagAdjustments.LastSelection},
			field{"tag_adjustments.second_last", c.TagAdjustments.SecondLast},
			field{"tag_adjustments.third_last", c.TagAdjustments.ThirdLast},
		)
	}
	for _, f := range floats {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return models.NewValidationError(f.key, "must be a finite number")
		}
	}

	return models.ValidateStruct(c)
}
