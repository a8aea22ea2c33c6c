package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "mileswise.db", cfg.DBPath)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.Equal(t, 5, cfg.Login.RateLimit)
	require.False(t, cfg.Archive.Enabled())
	require.Empty(t, cfg.WSOrigins)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mileswise.yaml")
	content := `
port: "9090"
log_format: json
backend:
  url: https://backend.example.com/
  token: secret
archive:
  bucket: mileswise-history
  retention_days: 30
ws:
  origins:
    - console.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "https://backend.example.com", cfg.Backend.URL)
	require.Equal(t, "secret", cfg.Backend.Token)
	require.True(t, cfg.Archive.Enabled())
	require.Equal(t, 30, cfg.Archive.RetentionDays)
	require.Equal(t, []string{"console.example.com"}, cfg.WSOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mileswise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\n"), 0o644))

	t.Setenv("MILESWISE_PORT", "7070")
	t.Setenv("MILESWISE_BACKEND_TOKEN", "from-env")
	t.Setenv("MILESWISE_WS_ORIGINS", "a.example.com, b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, "from-env", cfg.Backend.Token)
	require.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.WSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("MILESWISE_LOG_FORMAT", "xml")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
