// Package pysrc parses Python source files with tree-sitter and extracts
// classified import references from them.
package pysrc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// languageName is the tree-sitter grammar identifier for Python.
const languageName = "python"

// enryLanguage is the language label enry reports for Python sources.
const enryLanguage = "Python"

// Sentinel errors for parser operations.
var (
	errLanguageNotAvailable = errors.New("tree-sitter language not available")
	errNoRootNode           = errors.New("pysrc: no root node")
	errPoolType             = errors.New("pysrc: pool returned unexpected type")
)

// Parser extracts import references from Python sources. It pools
// tree-sitter parsers and is safe for concurrent use.
type Parser struct {
	language *sitter.Language
	tsPool   sync.Pool
}

// NewParser creates a Parser backed by the tree-sitter Python grammar.
func NewParser() (*Parser, error) {
	var lang *sitter.Language

	func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		lang = forest.GetLanguage(languageName)
	}()

	if lang == nil {
		return nil, fmt.Errorf("%w: %s", errLanguageNotAvailable, languageName)
	}

	parser := &Parser{language: lang}
	parser.tsPool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return parser, nil
}

// IsPython reports whether the given file looks like Python source,
// combining the extension with enry's content-based detection.
func IsPython(filename string, content []byte) bool {
	return enry.GetLanguage(filepath.Base(filename), content) == enryLanguage
}

// ExtractFile parses content and returns every import reference found, in
// source order. A syntactically broken file still yields the references
// tree-sitter could recover; extraction never aborts on malformed imports.
func (p *Parser) ExtractFile(ctx context.Context, filename string, content []byte) ([]RawImport, error) {
	tsParser, ok := p.tsPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.tsPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("pysrc: parse %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	extractor := &extractor{source: content}
	extractor.walk(root, guard{})

	return extractor.imports, nil
}
