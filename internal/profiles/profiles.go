// Package profiles manages isolated catalogs under one home directory.
//
// Each profile is a directory <home>/profiles/<name> holding its own
// books.db and config.yaml. The last profile used is remembered in
// <home>/state/profile_state.yaml.
package profiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fabula-rasa/fabula/internal/config"
	"github.com/fabula-rasa/fabula/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// Default always exists and cannot be renamed or deleted
	Default = "default"
	// DBFile is the catalog file inside a profile directory
	DBFile = "books.db"

	stateFile       = "profile_state.yaml"
	legacyStateFile = "profile_state.json"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrExists   = errors.New("profile already exists")
)

type state struct {
	LastProfile string `yaml:"last_profile" json:"last_profile"`
}

// Manager creates, lists and switches profiles
type Manager struct {
	home     string
	database string
	mu       sync.Mutex
}

// NewManager returns a manager rooted at home. A non-empty database
// overrides the default profile's catalog path.
func NewManager(home, database string) *Manager {
	return &Manager{home: home, database: database}
}

// Home returns the base directory
func (m *Manager) Home() string {
	return m.home
}

func (m *Manager) profilesDir() string {
	return filepath.Join(m.home, "profiles")
}

func (m *Manager) stateDir() string {
	return filepath.Join(m.home, "state")
}

// Dir returns the directory of a profile
func (m *Manager) Dir(name string) string {
	if actual, ok := m.lookup(name); ok {
		name = actual
	}
	return filepath.Join(m.profilesDir(), name)
}

// DBPath returns the catalog location of a profile
func (m *Manager) DBPath(name string) string {
	if m.database != "" && strings.EqualFold(name, Default) {
		return m.database
	}
	return filepath.Join(m.Dir(name), DBFile)
}

// lookup finds the on-disk spelling of a profile name, ignoring case
func (m *Manager) lookup(name string) (string, bool) {
	entries, err := os.ReadDir(m.profilesDir())
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), name) {
			return e.Name(), true
		}
	}
	return "", false
}

// Exists reports whether a profile is available. Default always is.
func (m *Manager) Exists(name string) bool {
	if strings.EqualFold(name, Default) {
		return true
	}
	_, ok := m.lookup(name)
	return ok
}

// List returns every profile, sorted, always including default
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.profilesDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	names := []string{Default}
	for _, e := range entries {
		if e.IsDir() && !strings.EqualFold(e.Name(), Default) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names[1:])
	return names, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return models.NewValidationError("profile", "name cannot be empty")
	case strings.EqualFold(name, Default):
		return models.NewValidationError("profile", "%q is reserved", Default)
	case strings.ContainsAny(name, `/\:`) || name == "." || name == "..":
		return models.NewValidationError("profile", "name %q contains a path separator", name)
	}
	return nil
}

// Create makes a new profile with an empty catalog directory and default config
func (m *Manager) Create(name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(name); ok {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := m.ensure(name); err != nil {
		return err
	}
	return config.Save(filepath.Join(m.profilesDir(), name), config.Default())
}

func (m *Manager) ensure(name string) error {
	if err := os.MkdirAll(filepath.Join(m.profilesDir(), name), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	return nil
}

// Delete removes a profile and everything in it. Deleting the current
// profile switches back to default.
func (m *Manager) Delete(name string) error {
	if strings.EqualFold(strings.TrimSpace(name), Default) {
		return models.NewValidationError("profile", "cannot delete the %s profile", Default)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	actual, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if strings.EqualFold(m.current(), actual) {
		if err := m.saveState(Default); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(filepath.Join(m.profilesDir(), actual)); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// Rename moves a profile to a new name. Names compare case-insensitively,
// so a case-only rename is allowed.
func (m *Manager) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if strings.EqualFold(strings.TrimSpace(oldName), Default) {
		return models.NewValidationError("profile", "cannot rename the %s profile", Default)
	}
	if err := validateName(newName); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	actual, ok := m.lookup(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if existing, ok := m.lookup(newName); ok && !strings.EqualFold(existing, actual) {
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}

	wasCurrent := strings.EqualFold(m.current(), actual)

	from := filepath.Join(m.profilesDir(), actual)
	to := filepath.Join(m.profilesDir(), newName)
	if strings.EqualFold(actual, newName) {
		// case-insensitive filesystems need an intermediate name
		tmp := from + "_renaming"
		if err := os.Rename(from, tmp); err != nil {
			return fmt.Errorf("failed to rename profile: %w", err)
		}
		from = tmp
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename profile: %w", err)
	}

	if wasCurrent {
		return m.saveState(newName)
	}
	return nil
}

// Current returns the last profile used, or default
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current()
}

func (m *Manager) current() string {
	for _, file := range []string{stateFile, legacyStateFile} {
		data, err := os.ReadFile(filepath.Join(m.stateDir(), file))
		if err != nil {
			continue
		}
		var s state
		if err := yaml.Unmarshal(data, &s); err != nil || s.LastProfile == "" {
			continue
		}
		if actual, ok := m.lookup(s.LastProfile); ok {
			return actual
		}
		return Default
	}
	return Default
}

// SetCurrent remembers name as the active profile
func (m *Manager) SetCurrent(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.EqualFold(name, Default) {
		return m.saveState(Default)
	}
	actual, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m.saveState(actual)
}

func (m *Manager) saveState(name string) error {
	if err := os.MkdirAll(m.stateDir(), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := yaml.Marshal(state{LastProfile: name})
	if err != nil {
		return fmt.Errorf("failed to marshal profile state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.stateDir(), stateFile), data, 0644); err != nil {
		return fmt.Errorf("failed to save profile state: %w", err)
	}
	return nil
}

// Find maps a requested profile (empty meaning current) to an existing
// profile name without creating anything on disk
func (m *Manager) Find(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = m.Current()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.EqualFold(name, Default) {
		return Default, nil
	}
	actual, ok := m.lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return actual, nil
}

// Resolve maps a requested profile (empty meaning current) to an existing
// profile directory, creating default on first use.
func (m *Manager) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = m.Current()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.EqualFold(name, Default) {
		return Default, m.ensure(Default)
	}
	actual, ok := m.lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return actual, nil
}
