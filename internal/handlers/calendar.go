package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/profiles"
	"github.com/fabula-rasa/fabula/internal/selection"
	"github.com/go-chi/chi/v5"
)

// Event is one selected book placed on the calendar at its read date
type Event struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	ISBN   string   `json:"isbn"`
	Length int      `json:"length"`
	Member string   `json:"member"`
	Start  string   `json:"start"`
	Tags   []string `json:"tags"`
}

func newEvent(b models.Book) Event {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return Event{
		Title:  b.Title,
		Author: b.Author,
		ISBN:   b.ISBN,
		Length: b.Length,
		Member: b.Member,
		Start:  b.ReadDate,
		Tags:   tags,
	}
}

// HandleEvents lists a profile's selected books, most recent first. Without
// a {profile} parameter the current profile is used.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	name, books, err := h.readCatalog(r.Context(), chi.URLParam(r, "profile"))
	if errors.Is(err, profiles.ErrNotFound) {
		h.writeError(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Unable to read catalog", "profile", name, "err", err)
		h.writeError(w, "Unable to read catalog", http.StatusInternalServerError)
		return
	}

	history := selection.History(books)
	events := make([]Event, 0, len(history))
	for _, e := range history {
		events = append(events, newEvent(e.Book))
	}
	h.writeJSON(w, events)
}

// HandleProfiles lists the profile names and marks the current one
func (h *Handler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.manager.List()
	if err != nil {
		slog.Error("Unable to list profiles", "err", err)
		h.writeError(w, "Unable to list profiles", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{
		"profiles": names,
		"current":  h.manager.Current(),
	})
}
