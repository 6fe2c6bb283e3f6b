package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.objective-ai.io", cfg.API.BaseURL)
	assert.Equal(t, "chunkfold", cfg.API.UserAgent)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Replay.Concurrency)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "chunkfold.yaml", `
api:
  base_url: http://localhost:8080
  timeout: 30s
  headers:
    x-team: search
logging:
  level: debug
  format: json
replay:
  concurrency: 8
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "search", cfg.API.Headers["x-team"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8, cfg.Replay.Concurrency)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "chunkfold.yaml", "api:\n  base_url: http://file.local\n")
	t.Setenv("CHUNKFOLD_API_BASE", "http://env.local")
	t.Setenv("CHUNKFOLD_API_KEY", "secret")
	t.Setenv("X_TITLE", "my-app")
	t.Setenv("CHUNKFOLD_LOGGING_LEVEL", "warn")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.local", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.APIKey)
	assert.Equal(t, "my-app", cfg.API.XTitle)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"zero concurrency", "replay:\n  concurrency: 0\n"},
		{"bad base url", "api:\n  base_url: not a url\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), writeFile(t, "c.yaml", tt.content))
			assert.ErrorContains(t, err, "config: invalid")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config: read")
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "CHUNKFOLD_TEST_VALUE=from-file\n")
	t.Setenv("CHUNKFOLD_TEST_VALUE", "")
	os.Unsetenv("CHUNKFOLD_TEST_VALUE")

	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "from-file", os.Getenv("CHUNKFOLD_TEST_VALUE"))

	missing := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, LoadEnvFile(missing, false))
	assert.Error(t, LoadEnvFile(missing, true))
	assert.NoError(t, LoadEnvFile("", true))
}
