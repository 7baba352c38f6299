package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/jward/trellis"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Detect import cycles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			cycles := e.Cycles()
			return output(cycles, func(w io.Writer) { formatCyclesText(w, cycles) })
		})
	},
}

var deadCmd = &cobra.Command{
	Use:   "dead",
	Short: "Report exported symbols with no detected use in dependent files",
	Long:  "Name-based dead-export detection: an exported definition is dead when no file depending on its defining file contains an occurrence of its bare name. Shadowed and same-named identifiers are not disambiguated.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			dead := e.DeadSymbols()
			return output(dead, func(w io.Writer) { formatDefinitionsText(w, dead) })
		})
	},
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List files no other file imports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScanned(func(e *trellis.Engine, root string) error {
			orphans := e.Orphans()
			return output(orphans, func(w io.Writer) { formatPathsText(w, orphans) })
		})
	},
}
