package symbols

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jward/trellis/internal/ast"
	"github.com/jward/trellis/internal/cache"
)

// maxWalkDepth bounds tree recursion so pathological inputs (minified
// bundles, generated one-liners) cannot blow the stack.
const maxWalkDepth = 512

// classKinds are the node kinds that introduce an enclosing class scope.
var classKinds = map[string]bool{
	"class_declaration":          true,
	"class":                      true,
	"abstract_class_declaration": true,
}

// functionValueKinds are expression kinds that make a variable declarator a
// function-valued definition.
var functionValueKinds = map[string]bool{
	"arrow_function":      true,
	"function_expression": true,
	"function":            true,
	"generator_function":  true,
}

// referenceKinds are the identifier node kinds recorded as raw occurrences.
var referenceKinds = map[string]bool{
	"identifier":                    true,
	"property_identifier":           true,
	"type_identifier":               true,
	"shorthand_property_identifier": true,
}

// Indexer walks each file's tree once, recording definitions and references.
type Indexer struct {
	cache   *cache.Manager
	workers int
}

// NewIndexer creates an Indexer. workers bounds the extraction pool.
func NewIndexer(c *cache.Manager, workers int) *Indexer {
	if workers < 1 {
		workers = 1
	}
	return &Indexer{cache: c, workers: workers}
}

// IndexAll rebuilds ix from the given file set. Files without a parseable
// tree contribute nothing. Per-file extraction is pure and runs in parallel;
// the merge is serial.
func (in *Indexer) IndexAll(ctx context.Context, ix *Index, files []string) error {
	results := make([]fileSymbols, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(in.workers)
	for i, file := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = in.extractFile(file)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	ix.merge(results)
	return nil
}

// extractFile records all definitions and identifier occurrences in one
// top-down traversal. An explicit enclosing-class stack qualifies method
// names; an exported flag follows descent through export statements.
func (in *Indexer) extractFile(file string) fileSymbols {
	tree := in.cache.GetTree(file, false)
	if tree == nil {
		return fileSymbols{}
	}
	file = filepath.Clean(file)

	w := &walker{file: file}
	w.walk(tree.Root(), false, 0)
	return fileSymbols{defs: w.defs, refs: w.refs}
}

type walker struct {
	file       string
	classStack []string
	defs       []Definition
	refs       []Reference
}

func (w *walker) walk(n ast.Node, exported bool, depth int) {
	if depth > maxWalkDepth {
		return
	}
	kind := n.Kind()

	switch {
	case kind == "export_statement":
		for _, child := range n.Children() {
			w.walk(child, true, depth+1)
		}
		return

	case classKinds[kind]:
		var name string
		if field := n.Field("name"); !field.IsZero() {
			name = field.Text()
			w.define(name, KindClass, n.StartLine(), exported)
		}
		w.classStack = append(w.classStack, name)
		for _, child := range n.Children() {
			w.walk(child, false, depth+1)
		}
		w.classStack = w.classStack[:len(w.classStack)-1]
		return

	case kind == "function_declaration" || kind == "generator_function_declaration":
		if name := n.Field("name"); !name.IsZero() {
			w.define(name.Text(), KindFunction, n.StartLine(), exported)
		}
		exported = false // nested definitions are not themselves exported

	case kind == "method_definition":
		if name := n.Field("name"); !name.IsZero() {
			qualified := name.Text()
			if len(w.classStack) > 0 && w.classStack[len(w.classStack)-1] != "" {
				qualified = w.classStack[len(w.classStack)-1] + "." + qualified
			}
			w.define(qualified, KindMethod, n.StartLine(), exported)
		}
		exported = false

	case kind == "variable_declarator":
		name := n.Field("name")
		value := n.Field("value")
		if !name.IsZero() && !value.IsZero() &&
			name.Kind() == "identifier" && functionValueKinds[value.Kind()] {
			w.define(name.Text(), KindVariable, n.StartLine(), exported)
			exported = false
		}

	case referenceKinds[kind]:
		w.refs = append(w.refs, Reference{Name: n.Text(), File: w.file, Line: n.StartLine()})
	}

	for _, child := range n.Children() {
		w.walk(child, exported, depth+1)
	}
}

func (w *walker) define(name string, kind Kind, line int, exported bool) {
	w.defs = append(w.defs, Definition{
		Name:     name,
		Kind:     kind,
		File:     w.file,
		Line:     line,
		Exported: exported,
	})
}
