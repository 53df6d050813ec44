// Package warn defines the warn-report data model for unresolved imports:
// classified import references, aggregated per-module entries, and the
// deterministic text, JSON, and YAML renderings of the report artifact.
package warn

// Style identifies the syntactic guard under which an import occurs.
type Style uint8

// Import styles, ordered from least to most guarded. The numeric order is
// the classification precedence: when an import sits under several guards at
// once, the highest value wins.
const (
	StyleTopLevel Style = iota
	StyleConditional
	StyleDelayed
	StyleOptional
)

// styleNames are the lower-cased labels used in the rendered report.
var styleNames = [...]string{
	StyleTopLevel:    "top-level",
	StyleConditional: "conditional",
	StyleDelayed:     "delayed",
	StyleOptional:    "optional",
}

// String returns the report label for the style.
func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler so styles serialize as their
// report labels in JSON and YAML output.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Dominant returns the most guarded of the two styles, implementing the
// classification precedence optional > delayed > conditional > top-level.
func Dominant(a, b Style) Style {
	if b > a {
		return b
	}

	return a
}
