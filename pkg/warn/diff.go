package warn

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffResult summarizes how the missing/excluded module set changed between
// two reports, typically two consecutive builds.
type DiffResult struct {
	// Added are modules present in the new report but not the old one.
	Added []Entry `json:"added" yaml:"added"`
	// Removed are modules present in the old report but not the new one.
	Removed []Entry `json:"removed" yaml:"removed"`
	// Changed are modules present in both whose rendered line differs
	// (importer set, styles, or status).
	Changed []Entry `json:"changed" yaml:"changed"`
}

// Empty reports whether the two reports were equivalent.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares two reports by module name. Results are sorted the same way
// report entries are.
func Diff(oldReport, newReport *Report) DiffResult {
	oldByName := entryIndex(oldReport)
	newByName := entryIndex(newReport)

	var result DiffResult

	for _, entry := range newReport.Entries {
		oldEntry, existed := oldByName[entry.Module]

		switch {
		case !existed:
			result.Added = append(result.Added, entry)
		case oldEntry.Line() != entry.Line():
			result.Changed = append(result.Changed, entry)
		}
	}

	for _, entry := range oldReport.Entries {
		if _, exists := newByName[entry.Module]; !exists {
			result.Removed = append(result.Removed, entry)
		}
	}

	sortEntries(result.Added)
	sortEntries(result.Removed)
	sortEntries(result.Changed)

	return result
}

func entryIndex(r *Report) map[string]Entry {
	index := make(map[string]Entry, len(r.Entries))

	for _, entry := range r.Entries {
		index[entry.Module] = entry
	}

	return index
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Module < entries[j].Module
	})
}

// TextDiff produces a character-level colored diff between two raw warn
// artifacts, for eyeballing what changed between builds.
func TextDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()

	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.DiffPrettyText(diffs)
}

// ParseText reads a previously rendered warn artifact back into a structural
// report. The preamble is skipped; unparseable lines are ignored rather than
// failing, the artifact is a human-facing format first.
func ParseText(r io.Reader) (*Report, error) {
	report := &Report{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		entry, ok := parseLine(line)
		if ok {
			report.Entries = append(report.Entries, entry)
		}
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read warn artifact: %w", err)
	}

	sortEntries(report.Entries)

	return report, nil
}

// parseLine reverses Entry.Line. Returns false for preamble or malformed
// lines.
func parseLine(line string) (Entry, bool) {
	var status Status

	switch {
	case strings.HasPrefix(line, "missing module named "):
		status = StatusMissing
		line = strings.TrimPrefix(line, "missing module named ")
	case strings.HasPrefix(line, "excluded module named "):
		status = StatusExcluded
		line = strings.TrimPrefix(line, "excluded module named ")
	default:
		return Entry{}, false
	}

	name, rest, found := strings.Cut(line, " - imported by ")
	if !found || name == "" {
		return Entry{}, false
	}

	entry := Entry{Status: status}

	if strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") && len(name) > 1 {
		entry.Quoted = true
		name = strings.Trim(name, "'")
	}

	entry.Module = name
	entry.Occurrences = parseOccurrences(rest)

	return entry, true
}

// parseOccurrences parses "a (top-level), b (delayed, optional)" into the
// flat occurrence list.
func parseOccurrences(rest string) []Occurrence {
	var occurrences []Occurrence

	for rest != "" {
		open := strings.Index(rest, " (")
		if open < 0 {
			break
		}

		importer := rest[:open]

		closeIdx := strings.Index(rest[open:], ")")
		if closeIdx < 0 {
			break
		}

		closeIdx += open

		for _, label := range strings.Split(rest[open+2:closeIdx], ", ") {
			occurrences = append(occurrences, Occurrence{
				Importer: importer,
				Style:    styleFromLabel(label),
			})
		}

		rest = strings.TrimPrefix(rest[closeIdx+1:], ", ")
	}

	return occurrences
}

func styleFromLabel(label string) Style {
	for style, name := range styleNames {
		if name == label {
			return Style(style) //nolint:gosec // index bounded by styleNames length.
		}
	}

	return StyleTopLevel
}
