package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_path: /data/library.db
batch_size: 10
quarantine_threshold: 65
log_level: DEBUG
collection_segments: [books, openings]
`), 0o644))

	// Environment wins over the file.
	t.Setenv("CURATOR_BATCH_SIZE", "25")
	t.Setenv("CURATOR_LOG_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/library.db", cfg.DatabasePath)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 65.0, cfg.QuarantineThreshold)
	assert.Equal(t, []string{"books", "openings"}, cfg.CollectionSegments)
	assert.Equal(t, slog.LevelError, cfg.Level())

	// Defaults survive for everything not mentioned.
	assert.Equal(t, Defaults().Workers, cfg.Workers)
}

func TestLevelParsing(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Config{LogLevel: tt.in}.Level(), tt.in)
	}
}
