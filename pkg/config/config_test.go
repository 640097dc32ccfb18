package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 150, cfg.RenderDPI)
	assert.Equal(t, 10, cfg.KeywordCount)
	assert.Equal(t, 2000, cfg.MaxVocabulary)
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ELIB_SERVER_PORT", "9999")
	t.Setenv("ELIB_MEDIA_ROOT", "/somewhere/else")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.ServerPort)
	assert.Equal(t, "/somewhere/else", cfg.MediaRoot)
}

func TestNewConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte("render_dpi: 130\njwt_secret: from-file\n"), 0644)
	require.NoError(t, err)

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 130, cfg.RenderDPI)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestEnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte("server_port: 1111\n"), 0644)
	require.NoError(t, err)

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ELIB_SERVER_PORT", "2222")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 2222, cfg.ServerPort)
}
