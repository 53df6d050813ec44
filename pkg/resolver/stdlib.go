package resolver

import (
	_ "embed"
	"strings"
)

// stdlibTable is the embedded list of top-level standard-library and builtin
// module names for the default target environment, one name per line.
//
//go:embed stdlib.txt
var stdlibTable string

func stdlibNames() map[string]struct{} {
	names := make(map[string]struct{})

	for line := range strings.Lines(stdlibTable) {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		names[name] = struct{}{}
	}

	return names
}
