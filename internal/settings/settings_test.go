package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()

	s, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, home, s.Home)
	assert.Empty(t, s.Profile)
	assert.Equal(t, "0 0 * * MON", s.MeetingSchedule)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, ":8888", s.Serve.Address)
}

func TestLoadFileAndEnv(t *testing.T) {
	home := t.TempDir()
	body := "profile: thursday\nlog:\n  level: debug\nserve:\n  address: \":9000\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte(body), 0644))
	t.Setenv("FABULA_SERVE_ADDRESS", ":9100")

	s, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "thursday", s.Profile)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, ":9100", s.Serve.Address)
}

func TestLoadRejectsBadLevel(t *testing.T) {
	t.Setenv("FABULA_LOG_LEVEL", "chatty")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}
