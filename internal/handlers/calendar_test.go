package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"net/http/httptest"
	"testing"

	"github.com/fabula-rasa/fabula/internal/club"
	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/profiles"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProfile(t *testing.T, m *profiles.Manager, name string, books []models.Book) {
	t.Helper()
	svc, err := club.Open(context.Background(), m, name)
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Import(context.Background(), books)
	require.NoError(t, err)
}

func newTestServer(t *testing.T) (*httptest.Server, *profiles.Manager) {
	t.Helper()
	m := profiles.NewManager(t.TempDir(), "")

	seedProfile(t, m, "", []models.Book{
		{Title: "Kindred", Author: "Octavia E. Butler", Length: 100000, Rating: 4.3, Member: "Bob", DateAdded: "2023-11-02", ReadDate: "2024-01-08"},
		{Title: "Piranesi", Author: "Susanna Clarke", Length: 85000, Rating: 4.2, Member: "Alice", DateAdded: "2024-01-10", Tags: []string{"fantasy"}, ReadDate: "2024-02-05"},
		{Title: "Waiting", Author: "Someone", Length: 60000, Rating: 3.5, Member: "Carol", DateAdded: "2024-01-11"},
	})

	require.NoError(t, m.Create("scifi"))
	seedProfile(t, m, "scifi", []models.Book{
		{Title: "Solaris", Author: "Stanislaw Lem", Length: 70000, Rating: 4, Member: "Dave", DateAdded: "2024-01-01", ReadDate: "2024-03-04"},
	})

	server := httptest.NewServer(New(m).Routes())
	t.Cleanup(server.Close)
	return server, m
}

func getEvents(t *testing.T, url string) []Event {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	return events
}

func TestHandleEventsCurrentProfile(t *testing.T) {
	server, _ := newTestServer(t)

	events := getEvents(t, server.URL+"/api/events")
	require.Len(t, events, 2)

	assert.Equal(t, Event{
		Title:  "Piranesi",
		Author: "Susanna Clarke",
		ISBN:   models.NoISBN,
		Length: 85000,
		Member: "Alice",
		Start:  "2024-02-05",
		Tags:   []string{"fantasy"},
	}, events[0])
	assert.Equal(t, "Kindred", events[1].Title)
	assert.Equal(t, []string{}, events[1].Tags)
}

func TestHandleEventsNamedProfile(t *testing.T) {
	server, m := newTestServer(t)

	events := getEvents(t, server.URL+"/api/profiles/SCIFI/events")
	require.Len(t, events, 1)
	assert.Equal(t, "Solaris", events[0].Title)

	require.NoError(t, m.SetCurrent("scifi"))
	events = getEvents(t, server.URL+"/api/events")
	require.Len(t, events, 1)
	assert.Equal(t, "Solaris", events[0].Title)
}

func TestHandleEventsUnknownProfile(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/profiles/ghost/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleEventsDoesNotWrite(t *testing.T) {
	home := t.TempDir()
	m := profiles.NewManager(home, "")
	require.NoError(t, m.Create("fresh"))
	require.NoError(t, os.Remove(filepath.Join(m.Dir("fresh"), "config.yaml")))

	server := httptest.NewServer(New(m).Routes())
	t.Cleanup(server.Close)

	for _, path := range []string{"/api/events", "/api/profiles/fresh/events"} {
		t.Run(path, func(t *testing.T) {
			events := getEvents(t, server.URL+path)
			assert.Empty(t, events)
		})
	}

	assert.NoDirExists(t, m.Dir(profiles.Default))
	assert.NoFileExists(t, filepath.Join(m.Dir("fresh"), "config.yaml"))
	assert.NoFileExists(t, m.DBPath("fresh"))
}

func TestHandleProfiles(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/profiles")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Profiles []string `json:"profiles"`
		Current  string   `json:"current"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{profiles.Default, "scifi"}, body.Profiles)
	assert.Equal(t, profiles.Default, body.Current)
}

func TestHealthcheck(t *testing.T) {
	rec := httptest.NewRecorder()
	New(profiles.NewManager(t.TempDir(), "")).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
