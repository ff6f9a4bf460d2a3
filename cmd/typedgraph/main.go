// Command typedgraph is a thin CLI over the core schema/diff/apply/project
// packages: create and clone schema versions, link and update changesets,
// and list the version graph.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, Colorize(ColorRed, "error:"), err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var projectDir string

	root := &cobra.Command{
		Use:           "typedgraph",
		Short:         "Manage a typed graph schema's version history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&projectDir, "project", ".", "project root directory")

	root.AddCommand(newNewCommand(&projectDir))
	root.AddCommand(newListCommand(&projectDir))
	root.AddCommand(newSchemaCommand(&projectDir))
	root.AddCommand(newMigrationCommand(&projectDir))
	root.AddCommand(newExportCommand(&projectDir))
	return root
}
