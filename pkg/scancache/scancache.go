// Package scancache persists per-file import extraction results between
// trace runs so unchanged sources are not re-parsed. Entries are keyed by
// path and invalidated by a size+mtime fingerprint; the cache file is
// gob-encoded and LZ4-compressed.
package scancache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/icepack-dev/icepack/pkg/pysrc"
)

// fileEntry is one cached extraction result.
type fileEntry struct {
	Fingerprint string
	Imports     []pysrc.RawImport
}

// Cache is a load-modify-save scan cache. Safe for concurrent use.
type Cache struct {
	path string

	mu      sync.RWMutex
	entries map[string]fileEntry
	dirty   bool
}

// Fingerprint derives the invalidation key for a source file from its size
// and modification time.
func Fingerprint(info fs.FileInfo) string {
	return strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// Open loads the cache at path. A missing or unreadable cache file yields an
// empty cache: the cache is an optimization, never a correctness dependency.
func Open(path string) *Cache {
	cache := &Cache{
		path:    path,
		entries: make(map[string]fileEntry),
	}

	file, err := os.Open(path)
	if err != nil {
		return cache
	}
	defer file.Close()

	decoder := gob.NewDecoder(lz4.NewReader(file))

	var entries map[string]fileEntry

	err = decoder.Decode(&entries)
	if err == nil {
		cache.entries = entries
	}

	return cache
}

// Lookup returns the cached imports for the file when the fingerprint still
// matches.
func (c *Cache) Lookup(path string, info fs.FileInfo) ([]pysrc.RawImport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || entry.Fingerprint != Fingerprint(info) {
		return nil, false
	}

	return entry.Imports, true
}

// Store records the extraction result for the file.
func (c *Cache) Store(path string, info fs.FileInfo, imports []pysrc.RawImport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = fileEntry{
		Fingerprint: Fingerprint(info),
		Imports:     imports,
	}
	c.dirty = true
}

// Len reports the number of cached files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Save writes the cache back to disk when it changed. The write goes through
// a temp file and rename so a crashed run never leaves a torn cache.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	dir := filepath.Dir(c.path)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".scancache-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}

	writeErr := writeEntries(tmp, c.entries)

	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write cache: %w", err)
	}

	err = os.Rename(tmp.Name(), c.path)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replace cache: %w", err)
	}

	c.dirty = false

	return nil
}

func writeEntries(w *os.File, entries map[string]fileEntry) error {
	lz4Writer := lz4.NewWriter(w)

	err := gob.NewEncoder(lz4Writer).Encode(entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	err = lz4Writer.Close()
	if err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}

	return nil
}
