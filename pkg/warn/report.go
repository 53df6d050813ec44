package warn

import (
	"sort"
)

// Status classifies why a module appears in the report.
type Status uint8

// Entry statuses.
const (
	// StatusMissing marks a module the resolver could not locate.
	StatusMissing Status = iota
	// StatusExcluded marks a module deliberately removed from resolution by
	// configuration or hook policy. Never conflated with missing.
	StatusExcluded
)

// statusNames are the labels used at the start of each report line.
var statusNames = [...]string{
	StatusMissing:  "missing",
	StatusExcluded: "excluded",
}

// String returns the report label for the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reference is one observed attempt to import a module, immutable after
// creation and discarded after aggregation.
type Reference struct {
	// Module is the dotted textual identifier being imported.
	Module string `json:"module" yaml:"module"`
	// Importer is the module that performed the import.
	Importer string `json:"importer" yaml:"importer"`
	// Style is the syntactic guard the import occurred under.
	Style Style `json:"style" yaml:"style"`
}

// Occurrence is one (importer, style) pair recorded for an entry, in
// discovery order.
type Occurrence struct {
	Importer string `json:"importer" yaml:"importer"`
	Style    Style  `json:"style" yaml:"style"`
}

// Entry is the aggregated reporting unit: one per unresolved or excluded
// module name across the whole graph.
type Entry struct {
	// Module is the dotted module name, unique within a report.
	Module string `json:"module" yaml:"module"`
	// Status reports whether the module is missing or policy-excluded.
	Status Status `json:"status" yaml:"status"`
	// Quoted marks names that are not importable as a plain top-level
	// module; they render wrapped in single quotes.
	Quoted bool `json:"quoted,omitempty" yaml:"quoted,omitempty"`
	// Occurrences holds every recorded (importer, style) pair in discovery
	// order. Not deduplicated unless the builder was configured to.
	Occurrences []Occurrence `json:"occurrences" yaml:"occurrences"`
}

// Report is the write-once, sorted sequence of entries produced by a single
// trace invocation.
type Report struct {
	// Program is the entry point the graph was traced from.
	Program string `json:"program,omitempty" yaml:"program,omitempty"`
	// Entries are sorted case-sensitively, lexicographic on the dotted
	// module name as a flat string.
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Builder accumulates missing and excluded references during a walk and
// produces the final sorted Report. It is the explicit mutable accumulator
// for one trace; it is not safe for concurrent use, callers serialize the
// merge step.
type Builder struct {
	entries map[string]*Entry
	program string
	dedupe  bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDedupe makes the builder drop duplicate (importer, style) pairs within
// an entry. The default keeps every discovery.
func WithDedupe(enabled bool) BuilderOption {
	return func(b *Builder) { b.dedupe = enabled }
}

// WithProgram records the traced entry point on the report.
func WithProgram(program string) BuilderOption {
	return func(b *Builder) { b.program = program }
}

// NewBuilder creates an empty report builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{entries: make(map[string]*Entry)}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Record adds one observation for the named module. The first observation
// fixes the entry status; an excluded module stays excluded even when later
// observations would mark it missing.
func (b *Builder) Record(module string, status Status, importer string, style Style) {
	entry, ok := b.entries[module]
	if !ok {
		entry = &Entry{Module: module, Status: status}
		b.entries[module] = entry
	}

	// Exclusion is a policy decision, it dominates plain misses.
	if status == StatusExcluded {
		entry.Status = StatusExcluded
	}

	occ := Occurrence{Importer: importer, Style: style}

	if b.dedupe {
		for _, existing := range entry.Occurrences {
			if existing == occ {
				return
			}
		}
	}

	entry.Occurrences = append(entry.Occurrences, occ)
}

// MarkQuoted flags the named module to render single-quoted. A no-op when
// the module has no entry.
func (b *Builder) MarkQuoted(module string) {
	if entry, ok := b.entries[module]; ok {
		entry.Quoted = true
	}
}

// Len reports the number of distinct module entries accumulated so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build produces the final report. Entries are sorted case-sensitively on
// the flat dotted name; occurrence order inside each entry is preserved.
func (b *Builder) Build() *Report {
	report := &Report{
		Program: b.program,
		Entries: make([]Entry, 0, len(b.entries)),
	}

	for _, entry := range b.entries {
		report.Entries = append(report.Entries, *entry)
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Module < report.Entries[j].Module
	})

	return report
}

// Missing returns the entries with StatusMissing, in report order.
func (r *Report) Missing() []Entry {
	return r.filter(StatusMissing)
}

// Excluded returns the entries with StatusExcluded, in report order.
func (r *Report) Excluded() []Entry {
	return r.filter(StatusExcluded)
}

func (r *Report) filter(status Status) []Entry {
	var out []Entry

	for _, entry := range r.Entries {
		if entry.Status == status {
			out = append(out, entry)
		}
	}

	return out
}
