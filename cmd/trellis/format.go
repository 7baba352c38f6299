package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jward/trellis/internal/symbols"
)

func validateFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid --format %q (want json or text)", format)
	}
}

// output renders v as JSON, or calls text when --format=text.
func output(v any, text func(io.Writer)) error {
	if flagFormat == "text" {
		text(os.Stdout)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPathsText prints one path per line.
func formatPathsText(w io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}

// formatCyclesText prints each cycle as "a -> b -> a".
func formatCyclesText(w io.Writer, cycles [][]string) {
	for _, cycle := range cycles {
		for i, p := range cycle {
			if i > 0 {
				fmt.Fprint(w, " -> ")
			}
			fmt.Fprint(w, p)
		}
		fmt.Fprintln(w)
	}
}

// formatDefinitionsText prints definitions as aligned columns.
func formatDefinitionsText(w io.Writer, defs []symbols.Definition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tEXPORTED")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", d.Name, d.Kind, d.File, d.Line, d.Exported)
	}
	tw.Flush()
}

// formatReferencesText prints references as "file:line: name" lines.
func formatReferencesText(w io.Writer, refs []symbols.Reference) {
	for _, r := range refs {
		fmt.Fprintf(w, "%s:%d: %s\n", r.File, r.Line, r.Name)
	}
}
