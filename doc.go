// Package trellis answers two recurring questions about a source workspace:
// which files does file X transitively affect (and which affect X), and where
// is symbol N defined or used. It is the dependency-graph and symbol-index
// engine that higher-level quality gates build on.
//
// # Pipeline
//
// A scan pass runs in three cooperating layers:
//
//  1. Enumerate: discover the workspace's source files, honoring .gitignore.
//  2. Extract: for each file in parallel, parse with tree-sitter (trees are
//     cached per path, keyed by mtime), resolve its import specifiers through
//     the project's alias tables, and record symbol definitions and
//     identifier references.
//  3. Merge: a single serial phase builds the mirrored forward/reverse import
//     maps and the name-keyed symbol index.
//
// # Usage
//
// Create an Engine for a workspace root, scan, and query:
//
//	e, err := trellis.New("path/to/workspace")
//	if err != nil { ... }
//	defer e.Close()
//
//	if err := e.Scan(context.Background()); err != nil { ... }
//
//	deps := e.Graph().Dependents("src/util/math.ts")
//	loc := e.Index().Definition("Foo.bar")
//	affected := e.AffectedSet([]string{"src/util/math.ts"})
//
// # Guarantees
//
// The forward and reverse maps are mirror images: g is in forward[f] exactly
// when f is in reverse[g]. Scanning twice over an unchanged file set produces
// identical maps. Per-file failures (missing, unreadable, empty, unparseable)
// degrade to "no analysis for this file" and never abort a pass.
//
// The symbol index is name-based, not binding-resolved: shadowed and
// same-named identifiers are not disambiguated.
package trellis
