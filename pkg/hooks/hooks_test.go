package hooks //nolint:testpackage // testing internal implementation.

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHook(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir_ValidHooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHook(t, dir, "hook-requests.json", `{
		"module": "requests",
		"hiddenimports": ["chardet", "idna"],
		"excludedimports": ["simplejson"]
	}`)
	writeHook(t, dir, "hook-urllib3.json", `{"hiddenimports": ["brotli"]}`)

	set, loadErrors, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, loadErrors)
	require.Len(t, set, 2)

	hook, ok := set.Lookup("requests")
	require.True(t, ok)
	assert.Equal(t, []string{"chardet", "idna"}, hook.HiddenImports)
	assert.Equal(t, []string{"simplejson"}, hook.ExcludedImports)

	// Module name falls back to the filename convention.
	hook, ok = set.Lookup("urllib3")
	require.True(t, ok)
	assert.Equal(t, []string{"brotli"}, hook.HiddenImports)
}

func TestLoadDir_InvalidHooksAreSkippedNotFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHook(t, dir, "hook-good.json", `{"module": "good"}`)
	writeHook(t, dir, "hook-broken.json", `{not json`)
	writeHook(t, dir, "hook-badschema.json", `{"module": "x", "hiddenimports": [1, 2]}`)
	writeHook(t, dir, "unrelated.txt", `ignored`)

	set, loadErrors, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, set, 1)
	_, ok := set.Lookup("good")
	assert.True(t, ok)

	assert.Len(t, loadErrors, 2)
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	set, loadErrors, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.Empty(t, loadErrors)
}

func TestValidate_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"minimal", `{}`, true},
		{"full", `{"module": "a.b", "hiddenimports": ["x"], "excludedimports": ["y"]}`, true},
		{"bad module name", `{"module": "not a module!"}`, false},
		{"wrong type", `{"hiddenimports": "x"}`, false},
		{"unknown property", `{"collect_data": true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate([]byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSchemaViolation)
			}
		})
	}
}
