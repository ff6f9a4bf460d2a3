package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/typedgraph/export"
	"github.com/aledsdavies/typedgraph/internal/xerrors"
	"github.com/aledsdavies/typedgraph/project"
)

func newNewCommand(projectDir *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Initialize a new project with a single seed schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.New(*projectDir, name)
			if err != nil {
				return err
			}
			fmt.Printf("created project at %s with seed schema %q\n", p.Root, firstNonEmpty(name, "V0.0"))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "seed schema version name (default V0.0)")
	return cmd
}

func newListCommand(projectDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the project's version graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			printVersionTree(os.Stdout, p)
			return nil
		},
	}
}

func newSchemaCommand(projectDir *string) *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "Manage schema versions"}

	var noAutoRename bool
	cloneCmd := &cobra.Command{
		Use:   "clone <name> [new-name]",
		Short: "Copy a schema version under a new name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			to := args[0]
			if len(args) == 2 {
				to = args[1]
			}
			target, err := p.CopySchema(args[0], to, !noAutoRename)
			if err != nil {
				reportUnknownSchema(err)
				return err
			}
			fmt.Printf("cloned %s -> %s\n", args[0], target)
			return nil
		},
	}
	cloneCmd.Flags().BoolVar(&noAutoRename, "no-auto-rename", false, "fail instead of auto-renaming on a name collision")
	cmd.AddCommand(cloneCmd)

	renameCmd := &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a schema version in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			if err := p.RenameSchema(args[0], args[1]); err != nil {
				reportUnknownSchema(err)
				return err
			}
			fmt.Printf("renamed %s -> %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.AddCommand(renameCmd)

	return cmd
}

func newMigrationCommand(projectDir *string) *cobra.Command {
	cmd := &cobra.Command{Use: "migration", Short: "Manage changesets between schema versions"}

	addCmd := &cobra.Command{
		Use:   "add <old> <new>",
		Short: "Create a new schema version and an empty changeset from old",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			if _, err := p.CopySchema(args[0], args[1], false); err != nil {
				reportUnknownSchema(err)
				return err
			}
			if _, err := p.CreateChangeset(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("added schema %s with changeset from %s\n", args[1], args[0])
			return nil
		},
	}
	cmd.AddCommand(addCmd)

	linkCmd := &cobra.Command{
		Use:   "link <old> <new>",
		Short: "Create a changeset between two existing schema versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			if _, err := p.CreateChangeset(args[0], args[1]); err != nil {
				reportUnknownSchema(err)
				return err
			}
			fmt.Printf("linked %s -> %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.AddCommand(linkCmd)

	var all bool
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Recompute changesets after editing a schema file in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			if err := p.UpdateChangesets(all); err != nil {
				return err
			}
			fmt.Println("changesets updated")
			return nil
		},
	}
	updateCmd.Flags().BoolVar(&all, "all", false, "recompute every changeset, not just those reaching a head")
	cmd.AddCommand(updateCmd)

	return cmd
}

func newExportCommand(projectDir *string) *cobra.Command {
	cmd := &cobra.Command{Use: "export", Short: "Export a schema version"}

	jsonCmd := &cobra.Command{
		Use:   "json <version>",
		Short: "Dump a schema version as structural JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Open(*projectDir)
			if err != nil {
				return err
			}
			schema, err := p.Schema(args[0])
			if err != nil {
				reportUnknownSchema(err)
				return err
			}
			exporter := &export.JSONExporter{}
			sink, err := export.Run(exporter, schema)
			if err != nil {
				return err
			}
			return sink.Flush(*projectDir)
		},
	}
	cmd.AddCommand(jsonCmd)
	return cmd
}

func reportUnknownSchema(err error) {
	var xe *xerrors.Error
	if e, ok := err.(*xerrors.Error); ok {
		xe = e
	}
	if xe == nil || xe.Kind != xerrors.KindUnknownSchema {
		return
	}
	if suggestions, ok := xe.Context["suggestions"].([]string); ok && len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr, Colorize(ColorYellow, "did you mean:"), suggestions)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
