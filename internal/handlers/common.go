// Package handlers serves a read-only calendar of each profile's reading
// history over HTTP.
package handlers

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/profiles"
	"github.com/fabula-rasa/fabula/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

type Handler struct {
	manager *profiles.Manager
	options []storage.Option
}

func New(manager *profiles.Manager, opts ...storage.Option) *Handler {
	return &Handler{
		manager: manager,
		options: opts,
	}
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthcheck", h.HandleHealthcheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.HandleEvents)
		r.Get("/profiles", h.HandleProfiles)
		r.Get("/profiles/{profile}/events", h.HandleEvents)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// HandleHealthcheck reports liveness
func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}

// readCatalog returns a profile's stored books without creating the
// profile, its config or its database. A profile that has never stored a
// book has an empty catalog. A catalog written by an older release is
// still migrated (after a backup copy) when it is first opened.
func (h *Handler) readCatalog(ctx context.Context, name string) (string, []models.Book, error) {
	name, err := h.manager.Find(name)
	if err != nil {
		return "", nil, err
	}

	path := h.manager.DBPath(name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return name, []models.Book{}, nil
	}

	store, err := storage.Open(ctx, path, h.options...)
	if err != nil {
		return name, nil, err
	}
	defer store.Close()

	books, err := store.ReadCatalog(ctx)
	return name, books, err
}
