package commands //nolint:testpackage // testing internal implementation.

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icepack-dev/icepack/pkg/warn"
)

func writeReportFile(t *testing.T, dir, name string, build func(*warn.Builder)) string {
	t.Helper()

	builder := warn.NewBuilder()
	build(builder)

	var buf bytes.Buffer
	require.NoError(t, builder.Build().WriteText(&buf))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	return path
}

func runDiffCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newDiffCommand(&DiffCommand{stdout: &out})
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func TestDiffCommand_ShowsChanges(t *testing.T) {
	dir := t.TempDir()

	oldPath := writeReportFile(t, dir, "old.txt", func(b *warn.Builder) {
		b.Record("chardet", warn.StatusMissing, "app", warn.StyleTopLevel)
		b.Record("simplejson", warn.StatusMissing, "app", warn.StyleDelayed)
	})
	newPath := writeReportFile(t, dir, "new.txt", func(b *warn.Builder) {
		b.Record("simplejson", warn.StatusMissing, "app", warn.StyleOptional)
		b.Record("zstandard", warn.StatusMissing, "app", warn.StyleTopLevel)
	})

	out, err := runDiffCmd(t, oldPath, newPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Added (1):")
	assert.Contains(t, out, "+ missing module named zstandard")
	assert.Contains(t, out, "Removed (1):")
	assert.Contains(t, out, "- missing module named chardet")
	assert.Contains(t, out, "Changed (1):")
	assert.Contains(t, out, "~ missing module named simplejson")
}

func TestDiffCommand_IdenticalReports(t *testing.T) {
	dir := t.TempDir()

	path := writeReportFile(t, dir, "report.txt", func(b *warn.Builder) {
		b.Record("chardet", warn.StatusMissing, "app", warn.StyleTopLevel)
	})

	out, err := runDiffCmd(t, path, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Reports are identical.")
}

func TestDiffCommand_ExitCode(t *testing.T) {
	dir := t.TempDir()

	oldPath := writeReportFile(t, dir, "old.txt", func(b *warn.Builder) {
		b.Record("chardet", warn.StatusMissing, "app", warn.StyleTopLevel)
	})
	newPath := writeReportFile(t, dir, "new.txt", func(_ *warn.Builder) {})

	_, err := runDiffCmd(t, "--exit-code", oldPath, newPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportsDiffer)
}

func TestDiffCommand_TextDiff(t *testing.T) {
	dir := t.TempDir()

	oldPath := writeReportFile(t, dir, "old.txt", func(b *warn.Builder) {
		b.Record("chardet", warn.StatusMissing, "app", warn.StyleTopLevel)
	})
	newPath := writeReportFile(t, dir, "new.txt", func(b *warn.Builder) {
		b.Record("zstandard", warn.StatusMissing, "app", warn.StyleTopLevel)
	})

	out, err := runDiffCmd(t, "--text", oldPath, newPath)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestDiffCommand_MissingFile(t *testing.T) {
	_, err := runDiffCmd(t, filepath.Join(t.TempDir(), "a.txt"), filepath.Join(t.TempDir(), "b.txt"))
	require.Error(t, err)
}
