package warn

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preamble is the fixed explanatory block written before the report lines.
// It is part of the artifact contract and must stay byte-stable.
const Preamble = `
This file lists modules that could not be found while tracing the import
graph of your program. This does not necessarily mean the module is required
for running your program: Python and third-party packages contain a lot of
conditional and optional imports. For example the module 'ntpath' only
exists on Windows, whereas the module 'posixpath' only exists on Posix
systems.

Types of import:
* top-level: imported at the top level of the importing module
* conditional: imported within an if-statement
* delayed: imported within a function
* optional: imported within a try-except block

Use this list as a starting point for tracking down a module yourself; the
presence of a name here is not by itself an error.
`

// WriteText renders the report as the plain-text warn artifact: the preamble
// followed by one line per entry. The output is byte-identical across runs
// over an unchanged graph.
func (r *Report) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, Preamble)
	if err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}

	_, err = io.WriteString(w, "\n")
	if err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}

	for _, entry := range r.Entries {
		_, err = io.WriteString(w, entry.Line()+"\n")
		if err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}

	return nil
}

// Line renders one report line for the entry:
//
//	missing module named pwd - imported by posixpath (delayed, optional), shutil (conditional)
//
// Importers keep first-seen order; each importer's styles keep discovery
// order and are comma-joined without deduplication.
func (e Entry) Line() string {
	var sb strings.Builder

	sb.WriteString(e.Status.String())
	sb.WriteString(" module named ")
	sb.WriteString(e.DisplayName())
	sb.WriteString(" - imported by ")

	// Group styles per importer while preserving first-seen importer order.
	order := make([]string, 0, len(e.Occurrences))
	styles := make(map[string][]Style, len(e.Occurrences))

	for _, occ := range e.Occurrences {
		if _, seen := styles[occ.Importer]; !seen {
			order = append(order, occ.Importer)
		}

		styles[occ.Importer] = append(styles[occ.Importer], occ.Style)
	}

	for i, importer := range order {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(importer)
		sb.WriteString(" (")

		for j, style := range styles[importer] {
			if j > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(style.String())
		}

		sb.WriteString(")")
	}

	return sb.String()
}

// DisplayName returns the module name as rendered in the artifact: bare for
// plain importable names, single-quoted otherwise.
func (e Entry) DisplayName() string {
	if e.Quoted || !isPlainName(e.Module) {
		return "'" + e.Module + "'"
	}

	return e.Module
}

// isPlainName reports whether every dotted segment of name is a plain
// identifier. Names with atypical characters render quoted.
func isPlainName(name string) bool {
	if name == "" {
		return false
	}

	for _, segment := range strings.Split(name, ".") {
		if !isIdentifier(segment) {
			return false
		}
	}

	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// WriteJSON renders the structured form of the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(r)
	if err != nil {
		return fmt.Errorf("encode report json: %w", err)
	}

	return nil
}

// WriteYAML renders the structured form of the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report yaml: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write report yaml: %w", err)
	}

	return nil
}
