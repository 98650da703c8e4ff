package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
)

type setter func(cfg *Config, value string) error

func floatSetter(key string, field func(*Config) *float64) setter {
	return func(cfg *Config, value string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return models.NewValidationError(key, "expected a number, got %q", value)
		}
		*field(cfg) = v
		return nil
	}
}

func intSetter(key string, field func(*Config) *int) setter {
	return func(cfg *Config, value string) error {
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return models.NewValidationError(key, "expected a whole number, got %q", value)
		}
		*field(cfg) = v
		return nil
	}
}

func tagAdjustments(cfg *Config) *TagRecencyConfig {
	if cfg.TagAdjustments == nil {
		cfg.TagAdjustments = &TagRecencyConfig{}
	}
	return cfg.TagAdjustments
}

var setters = map[string]setter{
	"rating.baseline":     floatSetter("rating.baseline", func(c *Config) *float64 { return &c.Rating.Baseline }),
	"rating.multiplier":   floatSetter("rating.multiplier", func(c *Config) *float64 { return &c.Rating.Multiplier }),
	"length.target":       intSetter("length.target", func(c *Config) *int { return &c.Length.Target }),
	"length.penalty_step": intSetter("length.penalty_step", func(c *Config) *int { return &c.Length.PenaltyStep }),
	"member_penalties.last_selection": floatSetter("member_penalties.last_selection", func(c *Config) *float64 {
		return &c.MemberPenalties.LastSelection
	}),
	"member_penalties.second_last": floatSetter("member_penalties.second_last", func(c *Config) *float64 {
		return &c.MemberPenalties.SecondLast
	}),
	"member_penalties.third_last": floatSetter("member_penalties.third_last", func(c *Config) *float64 {
		return &c.MemberPenalties.ThirdLast
	}),
	"tag_adjustments.last_selection": floatSetter("tag_adjustments.last_selection", func(c *Config) *float64 {
		return &tagAdjustments(c).LastSelection
	}),
	"tag_adjustments.second_last": floatSetter("tag_adjustments.second_last", func(c *Config) *float64 {
		return &tagAdjustments(c).SecondLast
	}),
	"tag_adjustments.third_last": floatSetter("tag_adjustments.third_last", func(c *Config) *float64 {
		return &tagAdjustments(c).ThirdLast
	}),
	"tag_adjustments": func(cfg *Config, value string) error {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "off", "none", "false":
			cfg.TagAdjustments = nil
		case "on", "true":
			tagAdjustments(cfg)
		default:
			return models.NewValidationError("tag_adjustments", "expected on or off, got %q", value)
		}
		return nil
	},
}

// Keys lists the dotted keys accepted by Set
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set returns a copy of cfg with one dotted key changed.
// The result is validated; on error cfg is returned unchanged.
func Set(cfg Config, key, value string) (Config, error) {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return cfg, models.NewValidationError(key, "unknown key (valid keys: %s)", strings.Join(Keys(), ", "))
	}

	updated := cfg
	if cfg.TagAdjustments != nil {
		tags := *cfg.TagAdjustments
		updated.TagAdjustments = &tags
	}

	if err := set(&updated, value); err != nil {
		return cfg, err
	}
	if err := updated.Validate(); err != nil {
		return cfg, fmt.Errorf("rejected %s=%s: %w", key, value, err)
	}
	return updated, nil
}
