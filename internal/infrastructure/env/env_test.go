package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Defaults(t *testing.T) {
	s := NewEnvServiceFrom(t.TempDir()).Settings()

	assert.Equal(t, "http://localhost:8000", s.APIURL)
	assert.True(t, s.Headless)
	assert.Equal(t, "aura.db", s.StorePath)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 3, s.RageClickThreshold)
	assert.Equal(t, 2*time.Second, s.RageClickWindow)
	assert.Equal(t, 750*time.Millisecond, s.PrefetchDelay)
	assert.Equal(t, 2.0, s.PrefetchRate)
	assert.Equal(t, 1280, s.ViewportWidth)
	assert.Equal(t, 720, s.ViewportHeight)
	assert.False(t, s.AutoAdapt)
}

func TestSettings_FromEnvironment(t *testing.T) {
	t.Setenv("AURA_API_URL", "http://backend:9000")
	t.Setenv("AURA_HEADLESS", "false")
	t.Setenv("AURA_RAGE_CLICK_WINDOW", "3s")
	t.Setenv("AURA_AUTO_ADAPT", "true")

	s := NewEnvServiceFrom(t.TempDir()).Settings()
	assert.Equal(t, "http://backend:9000", s.APIURL)
	assert.False(t, s.Headless)
	assert.Equal(t, 3*time.Second, s.RageClickWindow)
	assert.True(t, s.AutoAdapt)
}

func TestDotEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AURA_LOG_LEVEL=warn\nAURA_STORE_PATH=base.db\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("AURA_STORE_PATH=test.db\n"), 0o600))
	t.Setenv("APP_ENV", "test")
	// godotenv writes into the process environment; t.Setenv restores it
	t.Setenv("AURA_LOG_LEVEL", "")
	t.Setenv("AURA_STORE_PATH", "")
	os.Unsetenv("AURA_LOG_LEVEL")
	os.Unsetenv("AURA_STORE_PATH")

	e := NewEnvServiceFrom(dir)
	assert.Equal(t, "warn", e.Get(KeyLogLevel))
	assert.Equal(t, "test.db", e.Get(KeyStorePath))
}

func TestGetWithDefault(t *testing.T) {
	e := NewEnvServiceFrom(t.TempDir())
	assert.Equal(t, "fallback", e.GetWithDefault("missing_key", "fallback"))
	assert.Equal(t, "http://localhost:8000", e.GetWithDefault(KeyAPIURL, "fallback"))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aura.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7070\"\nviewport_width: 1024\n"), 0o600))

	e := NewEnvServiceFrom(dir)
	require.NoError(t, e.ReadFile(path))
	assert.Equal(t, ":7070", e.Settings().ListenAddr)
	assert.Equal(t, 1024, e.Settings().ViewportWidth)

	assert.Error(t, e.ReadFile(filepath.Join(dir, "missing.yaml")))
}
