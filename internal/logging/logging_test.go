package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupWritesTextAndJSON(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stderr bytes.Buffer
	file := filepath.Join(t.TempDir(), "fabula.log")
	logger, closer := Setup(Options{Level: "info", File: file, MaxSizeMB: 1, Stderr: &stderr})

	logger.Debug("hidden")
	logger.Info("Book selected", "title", "Piranesi")
	require.NoError(t, closer.Close())

	assert.Contains(t, stderr.String(), "title=Piranesi")
	assert.NotContains(t, stderr.String(), "hidden")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"Piranesi"`)
}
