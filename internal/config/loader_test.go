package config //nolint:testpackage // testing internal implementation.

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "icepack.yaml")
	content := `
search_paths:
  - /opt/app
  - /opt/app/vendor
excludes:
  - tkinter
hidden_imports:
  - pkg_resources.py2_warn
trace:
  workers: 8
  dedupe_occurrences: true
cache:
  enabled: true
  path: /tmp/scan.lz4
output:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/opt/app", "/opt/app/vendor"}, cfg.SearchPaths)
	assert.Equal(t, []string{"tkinter"}, cfg.Excludes)
	assert.Equal(t, []string{"pkg_resources.py2_warn"}, cfg.HiddenImports)
	assert.Equal(t, 8, cfg.Trace.Workers)
	assert.True(t, cfg.Trace.DedupeOccurrences)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "/tmp/scan.lz4", cfg.Cache.Path)
	assert.Equal(t, "json", cfg.Output.Format)

	// Unset keys keep their defaults.
	assert.Equal(t, int64(DefaultTraceMaxFileSize), cfg.Trace.MaxFileSize)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "icepack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: csv\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ICEPACK_TRACE_WORKERS", "16")
	t.Setenv("ICEPACK_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Trace.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}
