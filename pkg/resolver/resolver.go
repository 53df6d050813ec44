// Package resolver answers whether a dotted Python module name exists in the
// target environment: as project source on the search path, as a standard
// library module, or not at all. Exclusion policy lives here too, so callers
// never conflate deliberately removed modules with absent ones.
package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Status is the outcome of resolving one module name.
type Status uint8

// Resolution outcomes.
const (
	// StatusMissing means the module could not be located anywhere.
	StatusMissing Status = iota
	// StatusResolved means the module was found as source on the search path.
	StatusResolved
	// StatusStdlib means the module belongs to the target standard library.
	StatusStdlib
	// StatusExcluded means configuration removed the module from resolution.
	StatusExcluded
)

// sourceExtension is the Python source suffix the walker can descend into.
const sourceExtension = ".py"

// binaryExtensions are module suffixes that resolve but carry no walkable
// source.
var binaryExtensions = []string{".so", ".pyd", ".pyc"}

// packageInit is the marker file of a regular package directory.
const packageInit = "__init__.py"

// Resolution describes where a module name landed.
type Resolution struct {
	// Status is the resolution outcome.
	Status Status
	// Path is the source file representing the module, when one exists:
	// the .py file itself or the package __init__.py.
	Path string
	// IsPackage marks directory-backed modules that may own submodules.
	IsPackage bool
}

// Walkable reports whether the resolved module has Python source the walker
// can parse for further imports.
func (r Resolution) Walkable() bool {
	return r.Status == StatusResolved && r.Path != ""
}

// Resolver resolves dotted module names against a set of search paths and
// the embedded standard-library table. Safe for concurrent use; results are
// cached per name.
type Resolver struct {
	searchPaths []string
	stdlib      map[string]struct{}
	excluded    map[string]struct{}

	mu    sync.RWMutex
	cache map[string]Resolution
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExcludes registers module names removed from resolution by policy.
// An exclusion covers the module and all of its submodules.
func WithExcludes(names ...string) Option {
	return func(r *Resolver) {
		for _, name := range names {
			if name != "" {
				r.excluded[name] = struct{}{}
			}
		}
	}
}

// WithStdlibNames replaces the embedded standard-library table, for targets
// whose environment differs from the default.
func WithStdlibNames(names []string) Option {
	return func(r *Resolver) {
		r.stdlib = make(map[string]struct{}, len(names))
		for _, name := range names {
			r.stdlib[name] = struct{}{}
		}
	}
}

// New creates a Resolver over the given search paths, consulted in order.
func New(searchPaths []string, opts ...Option) *Resolver {
	r := &Resolver{
		searchPaths: searchPaths,
		stdlib:      stdlibNames(),
		excluded:    make(map[string]struct{}),
		cache:       make(map[string]Resolution),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Exclude adds exclusions after construction, e.g. from hook files
// discovered mid-walk.
func (r *Resolver) Exclude(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if name == "" {
			continue
		}

		r.excluded[name] = struct{}{}
		// Cached outcomes for the subtree are stale now.
		for cached := range r.cache {
			if cached == name || strings.HasPrefix(cached, name+".") {
				delete(r.cache, cached)
			}
		}
	}
}

// Resolve locates the dotted module name. It never fails: an unlocatable
// module is the expected steady-state outcome, reported as StatusMissing.
func (r *Resolver) Resolve(name string) Resolution {
	r.mu.RLock()
	cached, ok := r.cache[name]
	r.mu.RUnlock()

	if ok {
		return cached
	}

	resolution := r.resolve(name)

	r.mu.Lock()
	r.cache[name] = resolution
	r.mu.Unlock()

	return resolution
}

// KnownRoot reports whether the leading segment of a dotted name denotes a
// module the environment knows at all. Names with unknown roots are
// attribute-style references and render quoted in the report.
func (r *Resolver) KnownRoot(name string) bool {
	root, _, _ := strings.Cut(name, ".")

	status := r.Resolve(root).Status

	return status != StatusMissing
}

func (r *Resolver) resolve(name string) Resolution {
	if name == "" {
		return Resolution{Status: StatusMissing}
	}

	if r.isExcluded(name) {
		return Resolution{Status: StatusExcluded}
	}

	segments := strings.Split(name, ".")

	if _, ok := r.stdlib[segments[0]]; ok {
		return Resolution{Status: StatusStdlib}
	}

	for _, searchPath := range r.searchPaths {
		resolution, found := resolveIn(searchPath, segments)
		if found {
			return resolution
		}
	}

	return Resolution{Status: StatusMissing}
}

func (r *Resolver) isExcluded(name string) bool {
	if _, ok := r.excluded[name]; ok {
		return true
	}

	// Exclusions cover submodules: excluding "tkinter" excludes
	// "tkinter.ttk" as well.
	for prefix := name; ; {
		idx := strings.LastIndex(prefix, ".")
		if idx < 0 {
			return false
		}

		prefix = prefix[:idx]
		if _, ok := r.excluded[prefix]; ok {
			return true
		}
	}
}

// resolveIn tries one search path. Every leading segment must be a
// directory; the final segment may be a source module, a binary module, or a
// package directory.
func resolveIn(searchPath string, segments []string) (Resolution, bool) {
	dir := searchPath

	for _, segment := range segments[:len(segments)-1] {
		dir = filepath.Join(dir, segment)

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return Resolution{}, false
		}
	}

	last := segments[len(segments)-1]

	sourcePath := filepath.Join(dir, last+sourceExtension)
	if isFile(sourcePath) {
		return Resolution{Status: StatusResolved, Path: sourcePath}, true
	}

	for _, ext := range binaryExtensions {
		if isFile(filepath.Join(dir, last+ext)) {
			return Resolution{Status: StatusResolved}, true
		}
	}

	packageDir := filepath.Join(dir, last)

	info, err := os.Stat(packageDir)
	if err == nil && info.IsDir() {
		resolution := Resolution{Status: StatusResolved, IsPackage: true}

		initPath := filepath.Join(packageDir, packageInit)
		if isFile(initPath) {
			resolution.Path = initPath
		}

		return resolution, true
	}

	return Resolution{}, false
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
