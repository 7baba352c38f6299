package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/trellis"
)

var (
	flagDir     string
	flagFormat  string
	flagWorkers int
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "trellis",
	Short:         "Workspace dependency-graph and symbol-index engine",
	Long:          "Trellis scans a source workspace with tree-sitter, builds forward/reverse import graphs and a symbol index, and answers impact, cycle, dead-code, and orphan queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
	// No Run -- prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", ".", "workspace root")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "worker pool size (default: cores - 1)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(dependentsCmd)
	rootCmd.AddCommand(affectedCmd)
	rootCmd.AddCommand(symbolCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(deadCmd)
	rootCmd.AddCommand(orphansCmd)
	rootCmd.AddCommand(watchCmd)
}

// newEngine creates an Engine for the --dir workspace.
func newEngine() (*trellis.Engine, string, error) {
	root, err := filepath.Abs(flagDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving workspace root %q: %w", flagDir, err)
	}
	var opts []trellis.Option
	if flagWorkers > 0 {
		opts = append(opts, trellis.WithWorkers(flagWorkers))
	}
	e, err := trellis.New(root, opts...)
	if err != nil {
		return nil, "", err
	}
	return e, root, nil
}

// resolveArgPath makes a positional file argument absolute relative to the
// workspace root so it matches graph keys.
func resolveArgPath(root, arg string) string {
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg)
	}
	return filepath.Join(root, arg)
}
