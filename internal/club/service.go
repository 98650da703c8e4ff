// Package club ties one profile's catalog, configuration and meeting
// schedule together and exposes the operations the CLI and the calendar
// feed run.
package club

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fabula-rasa/fabula/internal/config"
	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/profiles"
	"github.com/fabula-rasa/fabula/internal/schedule"
	"github.com/fabula-rasa/fabula/internal/scoring"
	"github.com/fabula-rasa/fabula/internal/storage"
)

// ErrNoAvailableBooks is returned by Pick when every book has been read
// or is already scheduled
var ErrNoAvailableBooks = errors.New("no available books")

// ErrBookNotFound is returned when no book matches a title
var ErrBookNotFound = errors.New("book not found")

// Service runs catalog operations for one profile
type Service struct {
	profile  string
	dir      string
	store    *storage.Store
	meetings *schedule.Meetings
	now      func() time.Time

	mu  sync.Mutex
	cfg config.Config

	// ConfigWarning is set when the stored configuration was invalid and
	// defaults are in use
	ConfigWarning error
}

// Option configures a Service
type Option func(*options)

type options struct {
	meetings     *schedule.Meetings
	now          func() time.Time
	storeOptions []storage.Option
}

// WithMeetings sets the schedule that provides default read dates
func WithMeetings(m *schedule.Meetings) Option {
	return func(o *options) { o.meetings = m }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStoreOptions passes options through to storage.Open
func WithStoreOptions(opts ...storage.Option) Option {
	return func(o *options) { o.storeOptions = append(o.storeOptions, opts...) }
}

// Open resolves profile (empty meaning the current one), loads its
// configuration and opens its catalog
func Open(ctx context.Context, manager *profiles.Manager, profile string, opts ...Option) (*Service, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meetings == nil {
		o.meetings = schedule.MustParse(schedule.DefaultSpec)
	}

	name, err := manager.Resolve(profile)
	if err != nil {
		return nil, err
	}
	dir := manager.Dir(name)

	s := &Service{
		profile:  name,
		dir:      dir,
		meetings: o.meetings,
		now:      o.now,
	}

	cfg, err := config.Load(dir)
	if err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return nil, fmt.Errorf("failed to load config for profile %s: %w", name, err)
		}
		slog.Warn("Using default configuration", "profile", name, "err", err)
		s.ConfigWarning = err
	}
	s.cfg = cfg

	store, err := storage.Open(ctx, manager.DBPath(name), o.storeOptions...)
	if err != nil {
		return nil, err
	}
	s.store = store

	slog.Debug("Opened profile", "profile", name, "db", store.Path())
	return s, nil
}

// Close releases the catalog
func (s *Service) Close() error {
	return s.store.Close()
}

// Profile returns the resolved profile name
func (s *Service) Profile() string {
	return s.profile
}

// Config returns the active configuration
func (s *Service) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ConfigPath returns the location of the profile's config file
func (s *Service) ConfigPath() string {
	return filepath.Join(s.dir, config.FileName)
}

// Catalog returns every book with freshly computed scores
func (s *Service) Catalog(ctx context.Context) ([]models.Book, error) {
	books, err := s.store.ReadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.CalculateScores(books, s.Config()), nil
}

// Rescore recomputes every score and persists the result
func (s *Service) Rescore(ctx context.Context) ([]models.Book, error) {
	books, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.WriteCatalog(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateConfig applies one dotted-key edit, saves it and rescores the
// catalog. An invalid edit leaves the previous configuration in place.
func (s *Service) UpdateConfig(ctx context.Context, key, value string) (config.Config, error) {
	updated, err := config.Set(s.Config(), key, value)
	if err != nil {
		return s.Config(), err
	}
	return s.replaceConfig(ctx, updated)
}

// ResetConfig restores the default weights
func (s *Service) ResetConfig(ctx context.Context) (config.Config, error) {
	return s.replaceConfig(ctx, config.Default())
}

func (s *Service) replaceConfig(ctx context.Context, cfg config.Config) (config.Config, error) {
	if err := config.Save(s.dir, cfg); err != nil {
		return s.Config(), err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.ConfigWarning = nil
	s.mu.Unlock()

	if _, err := s.Rescore(ctx); err != nil {
		return cfg, fmt.Errorf("config saved but rescoring failed: %w", err)
	}
	return cfg, nil
}
