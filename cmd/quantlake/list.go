package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quantlake/quantlake/pkg/catalog"
	"github.com/quantlake/quantlake/pkg/db"
)

func newListCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every known dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Builtin()
			if err != nil {
				return err
			}

			header := color.New(color.FgCyan, color.Bold)
			disabled := color.New(color.Faint)
			if noColor {
				header.DisableColor()
				disabled.DisableColor()
			}

			out := cmd.OutOrStdout()
			header.Fprintf(out, "%-20s %-18s %-12s %-8s %s\n",
				"dataset", "category", "policy", "priority", "description")

			count := 0
			for _, d := range cat.All() {
				line := fmt.Sprintf("%-20s %-18s %-12s %-8d %s", d.Name, d.Category, d.Policy, d.Priority, d.Description)
				if !d.Enabled {
					disabled.Fprintf(out, "%s (disabled)\n", line)
					continue
				}
				fmt.Fprintln(out, line)
				count++
			}
			fmt.Fprintf(out, "\n%d datasets enabled, %d total\n", count, len(cat.All()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-status",
		Short: "Show the ledger schema migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := setupLogger()
			version, dirty, err := db.MigrationStatus(log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%v\n", version, dirty)
			return nil
		},
	}
}
