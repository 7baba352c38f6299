package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/trellis/internal/store"
)

var flagDB string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the workspace and report graph/index statistics",
	Long:  "Enumerates source files, builds the forward/reverse import graph and the symbol index, and prints summary statistics. With --db, persists a snapshot to SQLite.",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagDB, "db", "", "persist a snapshot to this SQLite database")
}

type scanSummary struct {
	Root        string `json:"root"`
	Files       int    `json:"files"`
	Edges       int    `json:"edges"`
	Definitions int    `json:"definitions"`
	Cycles      int    `json:"cycles"`
	Orphans     int    `json:"orphans"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()

	e, root, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Scan(context.Background()); err != nil {
		return err
	}

	if flagDB != "" {
		s, err := store.NewStore(flagDB)
		if err != nil {
			return fmt.Errorf("opening snapshot database: %w", err)
		}
		defer s.Close()
		if err := s.Migrate(); err != nil {
			return err
		}
		if err := s.Save(e.Snapshot()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", flagDB)
	}

	summary := scanSummary{
		Root:        root,
		Files:       len(e.Files()),
		Edges:       e.Graph().EdgeCount(),
		Definitions: e.Index().DefinitionCount(),
		Cycles:      len(e.Cycles()),
		Orphans:     len(e.Orphans()),
		ElapsedMS:   time.Since(start).Milliseconds(),
	}
	return output(summary, func(w io.Writer) {
		fmt.Fprintf(w, "Scanned %s in %s\n", summary.Root, time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(w, "  files:       %d\n", summary.Files)
		fmt.Fprintf(w, "  edges:       %d\n", summary.Edges)
		fmt.Fprintf(w, "  definitions: %d\n", summary.Definitions)
		fmt.Fprintf(w, "  cycles:      %d\n", summary.Cycles)
		fmt.Fprintf(w, "  orphans:     %d\n", summary.Orphans)
	})
}
