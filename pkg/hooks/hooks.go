// Package hooks loads per-module hook files. A hook supplements the static
// walk for modules whose real imports the tracer cannot see: hidden imports
// that must be injected when the module is reached, and imports the module
// is known to guard that should be excluded from resolution.
package hooks

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// filePrefix and fileSuffix bound the hook file naming convention:
// hook-<module>.json.
const (
	filePrefix = "hook-"
	fileSuffix = ".json"
)

// hookSchema is the embedded JSON Schema every hook file must satisfy.
//
//go:embed hook-schema.json
var hookSchema string

// ErrSchemaViolation marks a hook file that parsed as JSON but failed schema
// validation.
var ErrSchemaViolation = errors.New("hook schema violation")

// Hook declares trace adjustments for one module.
type Hook struct {
	// Module is the dotted module name the hook applies to.
	Module string `json:"module"`
	// HiddenImports are extra module references injected when Module is
	// reached during the walk.
	HiddenImports []string `json:"hiddenimports,omitempty"`
	// ExcludedImports are modules removed from resolution while the hook's
	// module is part of the graph.
	ExcludedImports []string `json:"excludedimports,omitempty"`
}

// Set is a collection of hooks indexed by module name.
type Set map[string]Hook

// Lookup returns the hook for the module, if one was loaded.
func (s Set) Lookup(module string) (Hook, bool) {
	hook, ok := s[module]

	return hook, ok
}

// LoadError records one hook file that could not be used. Invalid hooks are
// skipped, never fatal; callers surface them as warnings.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("hook %s: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// LoadDir reads every hook-*.json file in dir. Malformed or schema-invalid
// files are returned as LoadErrors alongside the valid hooks. A missing
// directory yields an empty set.
func LoadDir(dir string) (Set, []LoadError, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, nil, nil
		}

		return nil, nil, fmt.Errorf("read hooks dir: %w", err)
	}

	set := Set{}

	var loadErrors []LoadError

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		path := filepath.Join(dir, name)

		hook, loadErr := loadFile(path)
		if loadErr != nil {
			loadErrors = append(loadErrors, LoadError{Path: path, Err: loadErr})

			continue
		}

		if hook.Module == "" {
			hook.Module = moduleFromFilename(name)
		}

		set[hook.Module] = hook
	}

	return set, loadErrors, nil
}

func loadFile(path string) (Hook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Hook{}, fmt.Errorf("read hook: %w", err)
	}

	err = Validate(data)
	if err != nil {
		return Hook{}, err
	}

	var hook Hook

	err = json.Unmarshal(data, &hook)
	if err != nil {
		return Hook{}, fmt.Errorf("decode hook: %w", err)
	}

	return hook, nil
}

// Validate checks raw hook JSON against the embedded schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(hookSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate hook: %w", err)
	}

	if result.Valid() {
		return nil
	}

	descriptions := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		descriptions = append(descriptions, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(descriptions, "; "))
}

// moduleFromFilename derives the module name from the hook file naming
// convention when the document omits it.
func moduleFromFilename(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
}
