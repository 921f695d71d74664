package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "jobkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_FILE_HOST", "cache.internal")

	path := writeFile(t, `
uri: redis://${TEST_FILE_HOST}:6379/0
workers: 4
timeout: 1m30s
`)

	var cfg overlayConfig
	require.NoError(t, config.LoadFile(path, &cfg))
	assert.Equal(t, "redis://cache.internal:6379/0", cfg.URI)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	var cfg overlayConfig

	err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	assert.ErrorIs(t, err, config.ErrReadingFile)

	err = config.LoadFile(writeFile(t, "workers: [1, 2"), &cfg)
	assert.ErrorIs(t, err, config.ErrReadingFile)

	err = config.LoadFile(writeFile(t, "unknown_key: true\n"), &cfg)
	assert.ErrorIs(t, err, config.ErrReadingFile)
}

func TestDecode_EmptyDocument(t *testing.T) {
	t.Parallel()

	cfg := overlayConfig{Workers: 3}
	require.NoError(t, config.Decode([]byte(""), &cfg))
	assert.Equal(t, 3, cfg.Workers)
}
