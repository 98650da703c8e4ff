package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `rating:
  baseline: 1.5
  multiplier: 8
length:
  target: 60000
  penalty_step: 2500
member_penalties:
  last_selection: -20
  second_last: -10
  third_last: -5
`

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, filepath.Join(dir, FileName))

	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(validYAML), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Rating.Baseline)
	assert.Equal(t, 8.0, cfg.Rating.Multiplier)
	assert.Equal(t, 60000, cfg.Length.Target)
	assert.Equal(t, 2500, cfg.Length.PenaltyStep)
	assert.Equal(t, [3]float64{-20, -10, -5}, cfg.MemberPenalties.Slots())
	assert.Nil(t, cfg.TagAdjustments)
}

func TestLoadMigratesLegacyJSON(t *testing.T) {
	dir := t.TempDir()
	legacy := `{
  "rating": {"baseline": 2, "multiplier": 5},
  "length": {"target": 40000, "penalty_step": 1000},
  "member_penalties": {"last_selection": -9, "second_last": -6, "third_last": -3}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, LegacyFileName), []byte(legacy), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Rating.Baseline)
	assert.Equal(t, 40000, cfg.Length.Target)
	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestLoadInvalidFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "zero penalty step",
			body:  strings.Replace(validYAML, "penalty_step: 2500", "penalty_step: 0", 1),
			field: "length.penalty_step",
		},
		{
			name:  "missing key",
			body:  "rating:\n  baseline: 1\n  multiplier: 10\nlength:\n  target: 50000\n  penalty_step: 2000\nmember_penalties:\n  last_selection: -15\n  second_last: -10\n",
			field: "member_penalties.third_last",
		},
		{
			name:  "positive member penalty",
			body:  "rating:\n  baseline: 1\n  multiplier: 10\nlength:\n  target: 50000\n  penalty_step: 2000\nmember_penalties:\n  last_selection: 15\n  second_last: -10\n  third_last: -5\n",
			field: "member_penalties.last_selection",
		},
		{
			name:  "negative multiplier",
			body:  "rating:\n  baseline: 1\n  multiplier: -1\nlength:\n  target: 50000\n  penalty_step: 2000\nmember_penalties:\n  last_selection: -15\n  second_last: -10\n  third_last: -5\n",
			field: "rating.multiplier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			cfg, err := Load(dir)
			require.Error(t, err)
			assert.Equal(t, Default(), cfg)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.field, verr.Field)

			// the broken file is left for the user to fix
			data, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, tt.body, string(data))
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not yaml", body: "rating: [unterminated"},
		{name: "wrong type", body: "rating:\n  baseline: high\n  multiplier: 10\nlength:\n  target: 50000\n  penalty_step: 2000\nmember_penalties:\n  last_selection: -15\n  second_last: -10\n  third_last: -5\n"},
		{name: "unknown key", body: validYAML + "extra: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			var verr *models.ValidationError
			assert.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
		})
	}
}

func TestSaveRoundTripWithTagAdjustments(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.TagAdjustments = &TagRecencyConfig{LastSelection: -4, SecondLast: 2, ThirdLast: 1}

	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded.TagAdjustments)
	assert.Equal(t, [3]float64{-4, 2, 1}, loaded.TagAdjustments.Slots())
}

func TestSaveRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Length.PenaltyStep = 0

	err := Save(dir, cfg)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, FileName))
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name:  "rating baseline",
			key:   "rating.baseline",
			value: "1.5",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, 1.5, cfg.Rating.Baseline) },
		},
		{
			name:  "length target",
			key:   "length.target",
			value: "65000",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, 65000, cfg.Length.Target) },
		},
		{
			name:  "tag adjustment enables block",
			key:   "tag_adjustments.second_last",
			value: "3",
			check: func(t *testing.T, cfg Config) {
				require.NotNil(t, cfg.TagAdjustments)
				assert.Equal(t, 3.0, cfg.TagAdjustments.SecondLast)
			},
		},
		{name: "zero step rejected", key: "length.penalty_step", value: "0", wantErr: true},
		{name: "positive penalty rejected", key: "member_penalties.third_last", value: "5", wantErr: true},
		{name: "not a number", key: "rating.multiplier", value: "lots", wantErr: true},
		{name: "fractional int", key: "length.target", value: "1.5", wantErr: true},
		{name: "unknown key", key: "rating.bonus", value: "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Default()
			cfg, err := Set(before, tt.key, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				var verr *models.ValidationError
				assert.True(t, errors.As(err, &verr))
				assert.Equal(t, Default(), cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestSetDoesNotAliasTagAdjustments(t *testing.T) {
	cfg := Default()
	cfg.TagAdjustments = &TagRecencyConfig{LastSelection: 1}

	updated, err := Set(cfg, "tag_adjustments.last_selection", "2")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.TagAdjustments.LastSelection)
	assert.Equal(t, 2.0, updated.TagAdjustments.LastSelection)

	off, err := Set(updated, "tag_adjustments", "off")
	require.NoError(t, err)
	assert.Nil(t, off.TagAdjustments)
	assert.NotNil(t, updated.TagAdjustments)
}

func TestValidateReportsFirstNonFiniteKey(t *testing.T) {
	cfg := Default()
	cfg.Rating.Baseline = math.NaN()
	cfg.MemberPenalties.SecondLast = math.Inf(-1)
	cfg.TagAdjustments = &TagRecencyConfig{ThirdLast: math.NaN()}

	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		var verr *models.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "rating.baseline", verr.Field)
	}

	cfg.Rating.Baseline = 1
	var verr *models.ValidationError
	require.True(t, errors.As(cfg.Validate(), &verr))
	assert.Equal(t, "member_penalties.second_last", verr.Field)
}
