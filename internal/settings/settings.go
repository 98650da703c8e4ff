// Package settings loads application-wide settings: where profiles live,
// which profile is active, logging and the meeting schedule.
//
// Values come from <home>/settings.yaml and FABULA_* environment variables,
// with the environment taking precedence.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the optional settings file inside the home directory
const FileName = "settings.yaml"

// EnvPrefix namespaces every environment override
const EnvPrefix = "FABULA"

// Settings represents the complete application settings
type Settings struct {
	// Home is the base directory holding profiles and state
	Home string `mapstructure:"home"`
	// Database overrides the default profile's database path
	Database string `mapstructure:"db"`
	// Profile is used when none is given on the command line. Empty selects
	// the profile last chosen with "profile use".
	Profile string `mapstructure:"profile"`
	// MeetingSchedule is a cron expression; selections default to its next run
	MeetingSchedule string `mapstructure:"meeting_schedule"`

	Log   LogSettings   `mapstructure:"log"`
	Serve ServeSettings `mapstructure:"serve"`
}

// LogSettings defines logging output
type LogSettings struct {
	// Level is one of debug, info, warn, warning, error
	Level string `mapstructure:"level"`
	// File receives JSON logs with rotation; empty disables file logging
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// ServeSettings contains calendar feed server parameters
type ServeSettings struct {
	Address string `mapstructure:"address"`
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fabula"
	}
	return filepath.Join(home, ".fabula")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("home", defaultHome())
	v.SetDefault("db", "")
	v.SetDefault("profile", "")
	v.SetDefault("meeting_schedule", "0 0 * * MON")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("serve.address", ":8888")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves settings. A non-empty home overrides FABULA_HOME and the
// default ~/.fabula; settings.yaml is read from the resolved home if present.
func Load(home string) (*Settings, error) {
	v := newViper()
	if home == "" {
		home = v.GetString("home")
	}

	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling settings: %w", err)
	}
	s.Home = home

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Validate checks every section and returns the first error found
func (s *Settings) Validate() error {
	if s.Home == "" {
		return errors.New("home: must be specified")
	}
	if strings.TrimSpace(s.MeetingSchedule) == "" {
		return errors.New("meeting_schedule: must be specified")
	}
	if err := s.Log.Validate(); err != nil {
		return err
	}
	return s.Serve.Validate()
}

// Validate checks the log level and rotation limits
func (l *LogSettings) Validate() error {
	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("log.level: unsupported level '%s'", l.Level)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 {
		return errors.New("log: rotation limits cannot be negative")
	}
	return nil
}

// Validate checks that the listen address is set
func (s *ServeSettings) Validate() error {
	if s.Address == "" {
		return errors.New("serve.address: must be specified")
	}
	return nil
}
