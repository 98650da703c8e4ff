package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the per-profile configuration file
	FileName = "config.yaml"
	// LegacyFileName is read once and migrated to FileName
	LegacyFileName = "config.json"
)

// requiredKeys lists the keys a configuration file must carry
var requiredKeys = []string{
	"rating.baseline",
	"rating.multiplier",
	"length.target",
	"length.penalty_step",
	"member_penalties.last_selection",
	"member_penalties.second_last",
	"member_penalties.third_last",
}

// Load reads the configuration stored in a profile directory.
//
// A missing file is created with defaults. A malformed or invalid file is left
// untouched on disk: Load returns the defaults together with a
// *models.ValidationError so the caller can warn and continue.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return loadLegacy(dir)
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		slog.Warn("Invalid configuration, using defaults", "path", path, "err", err)
		return Default(), err
	}
	return cfg, nil
}

// loadLegacy migrates a config.json written by older releases, or writes defaults
func loadLegacy(dir string) (Config, error) {
	legacyPath := filepath.Join(dir, LegacyFileName)
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		slog.Debug("No configuration found, writing defaults", "dir", dir)
		cfg := Default()
		return cfg, Save(dir, cfg)
	}

	// JSON is a subset of YAML, so the same strict decoder applies
	cfg, err := Parse(data)
	if err != nil {
		slog.Warn("Invalid legacy configuration, using defaults", "path", legacyPath, "err", err)
		return Default(), err
	}

	slog.Info("Migrating legacy configuration", "from", legacyPath, "to", FileName)
	return cfg, Save(dir, cfg)
}

// Parse decodes and validates configuration file contents
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, &models.ValidationError{Message: "malformed configuration: " + err.Error()}
	}
	for _, key := range requiredKeys {
		if !hasKey(raw, key) {
			return Config{}, models.NewValidationError(key, "is missing")
		}
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &models.ValidationError{Message: "malformed configuration: " + err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func hasKey(raw map[string]any, dotted string) bool {
	parts := strings.Split(dotted, ".")
	var node any = raw
	for _, part := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return false
		}
		if node, ok = m[part]; !ok || node == nil {
			return false
		}
	}
	return true
}

// Save validates cfg and writes it to the profile directory.
// The file is replaced atomically so a failed save never leaves a partial file.
func Save(dir string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, FileName)); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
