package pysrc

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/icepack-dev/icepack/pkg/warn"
)

// WildcardName marks a `from x import *` reference in RawImport.Names.
const WildcardName = "*"

// RawImport is one import statement observation before resolution: the
// module text, the names pulled from it for from-imports, the relative
// level, and the syntactic classification.
type RawImport struct {
	// Module is the dotted module text. Empty for pure-relative imports
	// such as `from . import x`.
	Module string
	// Names are the imported names of a from-import; nil for plain imports.
	Names []string
	// Level counts leading dots of a relative import; zero for absolute.
	Level int
	// Style is the syntactic guard classification.
	Style warn.Style
	// Dynamic marks references recovered from __import__ or
	// importlib.import_module calls with literal arguments.
	Dynamic bool
}

// Tree-sitter node kinds of the Python grammar the extractor reacts to.
const (
	kindImport       = "import_statement"
	kindImportFrom   = "import_from_statement"
	kindImportFuture = "future_import_statement"
	kindDottedName   = "dotted_name"
	kindAliased      = "aliased_import"
	kindWildcard     = "wildcard_import"
	kindRelative     = "relative_import"
	kindImportPrefix = "import_prefix"
	kindTry          = "try_statement"
	kindIf           = "if_statement"
	kindConditional  = "conditional_expression"
	kindFunction     = "function_definition"
	kindLambda       = "lambda"
	kindCall         = "call"
	kindString       = "string"
)

// guard tracks which syntactic guards enclose the current subtree.
type guard struct {
	conditional bool
	delayed     bool
	optional    bool
}

// style reduces the accumulated guards to a single classification. The most
// guarded classification wins: optional > delayed > conditional > top-level.
func (g guard) style() warn.Style {
	switch {
	case g.optional:
		return warn.StyleOptional
	case g.delayed:
		return warn.StyleDelayed
	case g.conditional:
		return warn.StyleConditional
	default:
		return warn.StyleTopLevel
	}
}

// extractor walks a parsed tree and collects RawImports in source order.
type extractor struct {
	source  []byte
	imports []RawImport
}

func (e *extractor) walk(n sitter.Node, g guard) {
	switch n.Type() {
	case kindImport:
		e.collectImport(n, g)

		return
	case kindImportFrom, kindImportFuture:
		e.collectImportFrom(n, g)

		return
	case kindCall:
		if e.collectDynamicImport(n, g) {
			return
		}
	case kindTry:
		g.optional = true
	case kindFunction, kindLambda:
		g.delayed = true
	case kindIf, kindConditional:
		g.conditional = true
	}

	for idx := range n.NamedChildCount() {
		e.walk(n.NamedChild(idx), g)
	}
}

// collectImport handles `import a.b.c` and `import a.b as x`, one reference
// per comma-separated target.
func (e *extractor) collectImport(n sitter.Node, g guard) {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		name := e.importTargetName(child)
		if name == "" {
			continue
		}

		e.imports = append(e.imports, RawImport{
			Module: name,
			Style:  g.style(),
		})
	}
}

// collectImportFrom handles `from a.b import c, d as x` including relative
// and wildcard forms.
func (e *extractor) collectImportFrom(n sitter.Node, g guard) {
	ref := RawImport{Style: g.style()}

	if n.Type() == kindImportFuture {
		ref.Module = "__future__"
	}

	moduleStart, moduleEnd := uint(0), uint(0)

	moduleNode := n.ChildByFieldName("module_name")
	if !moduleNode.IsNull() {
		moduleStart, moduleEnd = moduleNode.StartByte(), moduleNode.EndByte()

		switch moduleNode.Type() {
		case kindRelative:
			ref.Level, ref.Module = e.relativeTarget(moduleNode)
		default:
			ref.Module = e.text(moduleNode)
		}
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if moduleEnd > 0 && child.StartByte() == moduleStart && child.EndByte() == moduleEnd {
			continue
		}

		switch child.Type() {
		case kindDottedName:
			ref.Names = append(ref.Names, e.text(child))
		case kindAliased:
			name := child.ChildByFieldName("name")
			if !name.IsNull() {
				ref.Names = append(ref.Names, e.text(name))
			}
		case kindWildcard:
			ref.Names = append(ref.Names, WildcardName)
		}
	}

	if ref.Module == "" && ref.Level == 0 && len(ref.Names) == 0 {
		// Malformed statement; skip rather than abort.
		return
	}

	e.imports = append(e.imports, ref)
}

// collectDynamicImport recognizes __import__("x") and
// importlib.import_module("x") with a literal first argument. Returns true
// when the call was consumed as an import reference.
func (e *extractor) collectDynamicImport(n sitter.Node, g guard) bool {
	fn := n.ChildByFieldName("function")
	if fn.IsNull() {
		return false
	}

	callee := e.text(fn)
	if callee != "__import__" && callee != "importlib.import_module" {
		return false
	}

	args := n.ChildByFieldName("arguments")
	if args.IsNull() || args.NamedChildCount() == 0 {
		return false
	}

	first := args.NamedChild(0)
	if first.Type() != kindString {
		return false
	}

	name := strings.Trim(e.text(first), `"'`)
	if name == "" {
		return false
	}

	// A dynamic import resolves at call time, so it is at least delayed.
	e.imports = append(e.imports, RawImport{
		Module:  name,
		Style:   warn.Dominant(g.style(), warn.StyleDelayed),
		Dynamic: true,
	})

	return true
}

// importTargetName extracts the dotted module name of one import target.
func (e *extractor) importTargetName(n sitter.Node) string {
	switch n.Type() {
	case kindDottedName:
		return e.text(n)
	case kindAliased:
		name := n.ChildByFieldName("name")
		if name.IsNull() {
			return ""
		}

		return e.text(name)
	default:
		return ""
	}
}

// relativeTarget splits a relative_import node into its dot level and the
// optional trailing dotted name.
func (e *extractor) relativeTarget(n sitter.Node) (level int, module string) {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case kindImportPrefix:
			level = strings.Count(e.text(child), ".")
		case kindDottedName:
			module = e.text(child)
		}
	}

	return level, module
}

func (e *extractor) text(n sitter.Node) string {
	start := n.StartByte()
	end := n.EndByte()

	if int(end) > len(e.source) || start > end {
		return ""
	}

	return string(e.source[start:end])
}
