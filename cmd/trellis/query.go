package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/trellis"
)

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List the files a file imports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			paths := e.Graph().Dependencies(resolveArgPath(root, args[0]))
			return output(paths, func(w io.Writer) { formatPathsText(w, paths) })
		})
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <file>",
	Short: "List the files that import a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			paths := e.Graph().Dependents(resolveArgPath(root, args[0]))
			return output(paths, func(w io.Writer) { formatPathsText(w, paths) })
		})
	},
}

var affectedCmd = &cobra.Command{
	Use:   "affected <file>...",
	Short: "Compute the transitive affected set of a changed-file set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			changed := make([]string, len(args))
			for i, a := range args {
				changed[i] = resolveArgPath(root, a)
			}
			set := e.AffectedSet(changed)
			paths := make([]string, 0, len(set))
			for p := range set {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			return output(paths, func(w io.Writer) { formatPathsText(w, paths) })
		})
	},
}

var symbolCmd = &cobra.Command{
	Use:   "symbol <name>",
	Short: "Show where a symbol is defined",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			defs := e.Index().Definitions(args[0])
			if len(defs) == 0 {
				return fmt.Errorf("symbol %q not found", args[0])
			}
			return output(defs, func(w io.Writer) { formatDefinitionsText(w, defs) })
		})
	},
}

var refsCmd = &cobra.Command{
	Use:   "refs <name>",
	Short: "List every occurrence of an identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			refs := e.Index().References(args[0])
			return output(refs, func(w io.Writer) { formatReferencesText(w, refs) })
		})
	},
}

// withScanned creates an engine, runs a full scan, and hands it to fn.
func withScanned(fn func(e *trellis.Engine, root string) error) error {
	e, root, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.Scan(context.Background()); err != nil {
		return err
	}
	return fn(e, root)
}
