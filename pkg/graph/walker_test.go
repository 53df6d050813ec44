package graph //nolint:testpackage // testing internal implementation.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icepack-dev/icepack/pkg/hooks"
	"github.com/icepack-dev/icepack/pkg/pysrc"
	"github.com/icepack-dev/icepack/pkg/resolver"
	"github.com/icepack-dev/icepack/pkg/scancache"
	"github.com/icepack-dev/icepack/pkg/warn"
)

func writeSource(t *testing.T, root string, parts ...string) string {
	t.Helper()

	content := parts[len(parts)-1]
	path := filepath.Join(append([]string{root}, parts[:len(parts)-1]...)...)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func newTestWalker(t *testing.T, root string, opts Options, resolverOpts ...resolver.Option) *Walker {
	t.Helper()

	parser, err := pysrc.NewParser()
	require.NoError(t, err)

	return NewWalker(parser, resolver.New([]string{root}, resolverOpts...), opts)
}

func findEntry(report *warn.Report, module string) (warn.Entry, bool) {
	for _, entry := range report.Entries {
		if entry.Module == module {
			return entry, true
		}
	}

	return warn.Entry{}, false
}

func TestWalker_TraceProject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", ""+
		"import os\n"+
		"import sys\n"+
		"from mylib import helpers\n"+
		"try:\n"+
		"    import chardet\n"+
		"except ImportError:\n"+
		"    chardet = None\n")
	writeSource(t, root, "mylib", "__init__.py", "from . import helpers\n")
	writeSource(t, root, "mylib", "helpers.py", ""+
		"def convert():\n"+
		"    import simplejson\n"+
		"    return simplejson\n")

	w := newTestWalker(t, root, Options{})

	report, stats, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)

	// Resolvable modules never produce entries.
	_, found := findEntry(report, "os")
	assert.False(t, found)
	_, found = findEntry(report, "mylib")
	assert.False(t, found)
	_, found = findEntry(report, "mylib.helpers")
	assert.False(t, found)

	chardet, found := findEntry(report, "chardet")
	require.True(t, found)
	assert.Equal(t, warn.StatusMissing, chardet.Status)
	require.Len(t, chardet.Occurrences, 1)
	assert.Equal(t, "app", chardet.Occurrences[0].Importer)
	assert.Equal(t, warn.StyleOptional, chardet.Occurrences[0].Style)

	simplejson, found := findEntry(report, "simplejson")
	require.True(t, found)
	require.Len(t, simplejson.Occurrences, 1)
	assert.Equal(t, "mylib.helpers", simplejson.Occurrences[0].Importer)
	assert.Equal(t, warn.StyleDelayed, simplejson.Occurrences[0].Style)

	assert.Equal(t, 2, stats.Missing)
	assert.GreaterOrEqual(t, stats.FilesParsed, 3)
}

func TestWalker_EntryUnreadableIsFatal(t *testing.T) {
	t.Parallel()

	w := newTestWalker(t, t.TempDir(), Options{})

	_, _, err := w.Walk(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntryUnreadable)

	_, _, err = w.Walk(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrEntryUnreadable)
}

func TestWalker_ExcludedNeverMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", "import uiframework\n")

	w := newTestWalker(t, root, Options{}, resolver.WithExcludes("uiframework"))

	report, stats, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)

	entryRec, found := findEntry(report, "uiframework")
	require.True(t, found)
	assert.Equal(t, warn.StatusExcluded, entryRec.Status)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, 0, stats.Missing)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	assert.NotContains(t, buf.String(), "missing module named uiframework")
}

func TestWalker_QuotesUnknownRootDottedNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", ""+
		"if True:\n"+
		"    import org.python\n"+
		"import urllib3faux\n")

	w := newTestWalker(t, root, Options{})

	report, _, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)

	orgPython, found := findEntry(report, "org.python")
	require.True(t, found)
	assert.True(t, orgPython.Quoted)
	assert.Equal(t, "missing module named 'org.python' - imported by app (conditional)", orgPython.Line())

	// Single-segment missing names stay bare.
	plain, found := findEntry(report, "urllib3faux")
	require.True(t, found)
	assert.False(t, plain.Quoted)
}

func TestWalker_RelativeImports(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", "import pkg.sub.worker\n")
	writeSource(t, root, "pkg", "__init__.py", "")
	writeSource(t, root, "pkg", "sub", "__init__.py", "")
	writeSource(t, root, "pkg", "sub", "worker.py", ""+
		"from . import sibling\n"+
		"from ..shared import util\n"+
		"from ....escape import nothing\n")
	writeSource(t, root, "pkg", "sub", "sibling.py", "")

	w := newTestWalker(t, root, Options{})

	report, _, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)

	// Resolvable relative targets never produce entries.
	_, found := findEntry(report, "pkg.sub.sibling")
	assert.False(t, found)

	// `from ..shared import util` resolves to pkg.shared, which is absent.
	missing, found := findEntry(report, "pkg.shared")
	require.True(t, found)
	assert.Equal(t, "pkg.sub.worker", missing.Occurrences[0].Importer)

	// Escaping the package root folds into a quoted textual entry.
	escape, found := findEntry(report, "....escape")
	require.True(t, found)
	assert.True(t, escape.Quoted)
}

func TestWalker_HooksInjectAndExclude(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", "import plugin\n")
	writeSource(t, root, "plugin", "__init__.py", "import lazy_backend\n")

	hookSet := hooks.Set{
		"plugin": {
			Module:          "plugin",
			HiddenImports:   []string{"plugin_native"},
			ExcludedImports: []string{"lazy_backend"},
		},
	}

	w := newTestWalker(t, root, Options{Hooks: hookSet})

	report, _, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)

	hidden, found := findEntry(report, "plugin_native")
	require.True(t, found)
	assert.Equal(t, warn.StatusMissing, hidden.Status)
	assert.Equal(t, "plugin", hidden.Occurrences[0].Importer)

	excluded, found := findEntry(report, "lazy_backend")
	require.True(t, found)
	assert.Equal(t, warn.StatusExcluded, excluded.Status)
}

func TestWalker_DeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", ""+
		"import alpha\n"+
		"import beta\n"+
		"import gamma\n")
	writeSource(t, root, "alpha.py", "import missing_a\nimport shared_dep\n")
	writeSource(t, root, "beta.py", "import missing_b\nimport shared_dep\n")
	writeSource(t, root, "gamma.py", "import missing_c\n")

	var baseline []byte

	for _, workers := range []int{1, 2, 8} {
		w := newTestWalker(t, root, Options{Workers: workers})

		report, _, err := w.Walk(context.Background(), entry)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, report.WriteText(&buf))

		if baseline == nil {
			baseline = buf.Bytes()

			continue
		}

		assert.Equal(t, baseline, buf.Bytes(), "workers=%d must not change the artifact", workers)
	}
}

func TestWalker_ScanCacheReuse(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", "import chardet\nimport helper\n")
	writeSource(t, root, "helper.py", "import simplejson\n")

	cache := scancache.Open(filepath.Join(t.TempDir(), "scan.lz4"))

	w := newTestWalker(t, root, Options{Cache: cache})

	first, firstStats, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)
	assert.Zero(t, firstStats.CacheHits)

	second, secondStats, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)
	assert.Positive(t, secondStats.CacheHits)

	var firstText, secondText bytes.Buffer
	require.NoError(t, first.WriteText(&firstText))
	require.NoError(t, second.WriteText(&secondText))
	assert.Equal(t, firstText.String(), secondText.String())
}

func TestWalker_BrokenModuleDoesNotAbort(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeSource(t, root, "app.py", "import broken\nimport chardet\n")
	writeSource(t, root, "broken.py", "def oops(:\n    import hidden_in_broken\n")

	w := newTestWalker(t, root, Options{})

	report, _, err := w.Walk(context.Background(), entry)
	require.NoError(t, err)

	_, found := findEntry(report, "chardet")
	assert.True(t, found, "walk must continue past malformed modules")
}
