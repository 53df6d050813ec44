package mcp //nolint:testpackage // testing internal implementation.

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icepack-dev/icepack/pkg/warn"
)

func TestHandleTrace_InputValidation(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleTrace(context.Background(), nil, TraceInput{})
	require.NoError(t, err)
	require.True(t, result.IsError)

	result, _, err = srv.handleTrace(context.Background(), nil, TraceInput{EntryPath: "relative/app.py"})
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleTrace_ReportsMissingModules(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := filepath.Join(root, "app.py")
	require.NoError(t, os.WriteFile(entry, []byte("import chardet\n"), 0o644))

	srv := NewServer(ServerDeps{})

	result, output, err := srv.handleTrace(context.Background(), nil, TraceInput{EntryPath: entry})
	require.NoError(t, err)
	require.False(t, result.IsError)

	report, ok := output.Data.(*warn.Report)
	require.True(t, ok)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "chardet", report.Entries[0].Module)
	assert.Equal(t, warn.StatusMissing, report.Entries[0].Status)
}

func TestHandleTrace_UnreadableEntryIsToolError(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleTrace(context.Background(), nil, TraceInput{
		EntryPath: filepath.Join(t.TempDir(), "absent.py"),
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
