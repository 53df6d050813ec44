package warn //nolint:testpackage // testing internal implementation.

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SortsEntriesLexicographically(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Record("zstandard", StatusMissing, "urllib3.response", StyleOptional)
	b.Record("brotli", StatusMissing, "urllib3.response", StyleOptional)
	b.Record("socks", StatusMissing, "urllib3.contrib.socks", StyleOptional)

	report := b.Build()

	names := make([]string, len(report.Entries))
	for i, entry := range report.Entries {
		names[i] = entry.Module
	}

	assert.Equal(t, []string{"brotli", "socks", "zstandard"}, names)
}

func TestBuilder_MultiImporterAggregation(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Record("chardet", StatusMissing, "requests.compat", StyleOptional)
	b.Record("chardet", StatusMissing, "requests", StyleOptional)
	b.Record("chardet", StatusMissing, "requests.packages", StyleOptional)

	report := b.Build()
	require.Len(t, report.Entries, 1)

	line := report.Entries[0].Line()
	assert.Equal(
		t,
		"missing module named chardet - imported by requests.compat (optional), requests (optional), requests.packages (optional)",
		line,
	)
}

func TestBuilder_KeepsDuplicateOccurrencesByDefault(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Record("pwd", StatusMissing, "posixpath", StyleDelayed)
	b.Record("pwd", StatusMissing, "posixpath", StyleDelayed)
	b.Record("pwd", StatusMissing, "posixpath", StyleOptional)

	report := b.Build()
	require.Len(t, report.Entries, 1)
	assert.Len(t, report.Entries[0].Occurrences, 3)
	assert.Equal(
		t,
		"missing module named pwd - imported by posixpath (delayed, delayed, optional)",
		report.Entries[0].Line(),
	)
}

func TestBuilder_DedupePolicy(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WithDedupe(true))
	b.Record("pwd", StatusMissing, "posixpath", StyleDelayed)
	b.Record("pwd", StatusMissing, "posixpath", StyleDelayed)
	b.Record("pwd", StatusMissing, "posixpath", StyleOptional)

	report := b.Build()
	require.Len(t, report.Entries, 1)
	assert.Len(t, report.Entries[0].Occurrences, 2)
}

func TestBuilder_ExclusionDominatesMissing(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Record("tkinter", StatusMissing, "app.gui", StyleTopLevel)
	b.Record("tkinter", StatusExcluded, "app.main", StyleConditional)
	b.Record("tkinter", StatusMissing, "app.cli", StyleDelayed)

	report := b.Build()
	require.Len(t, report.Entries, 1)

	entry := report.Entries[0]
	assert.Equal(t, StatusExcluded, entry.Status)
	assert.Len(t, entry.Occurrences, 3)
	assert.True(t, strings.HasPrefix(entry.Line(), "excluded module named tkinter"))

	assert.Empty(t, report.Missing())
	assert.Len(t, report.Excluded(), 1)
}

func TestDominant_PrecedenceLaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Style
		want Style
	}{
		{"optional over delayed", StyleDelayed, StyleOptional, StyleOptional},
		{"optional over conditional", StyleOptional, StyleConditional, StyleOptional},
		{"delayed over conditional", StyleConditional, StyleDelayed, StyleDelayed},
		{"conditional over top-level", StyleTopLevel, StyleConditional, StyleConditional},
		{"same style", StyleDelayed, StyleDelayed, StyleDelayed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Dominant(tt.a, tt.b))
			assert.Equal(t, tt.want, Dominant(tt.b, tt.a))
		})
	}
}

func TestStyle_Labels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "top-level", StyleTopLevel.String())
	assert.Equal(t, "conditional", StyleConditional.String())
	assert.Equal(t, "delayed", StyleDelayed.String())
	assert.Equal(t, "optional", StyleOptional.String())
}

func TestReport_RenderingIsIdempotent(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WithProgram("app.py"))
	b.Record("pwd", StatusMissing, "posixpath", StyleDelayed)
	b.Record("grp", StatusMissing, "shutil", StyleOptional)
	b.Record("org.python", StatusMissing, "pickle", StyleConditional)
	b.MarkQuoted("org.python")

	report := b.Build()

	var first, second bytes.Buffer

	require.NoError(t, report.WriteText(&first))
	require.NoError(t, report.WriteText(&second))

	assert.Equal(t, first.Bytes(), second.Bytes())
}
