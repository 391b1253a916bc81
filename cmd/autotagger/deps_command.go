package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autotagger/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Report which external tools are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			if cwd, err := os.Getwd(); err == nil {
				statuses = append(statuses, deps.CheckWritable("working directory", cwd))
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "available"
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
				}
				detail := status.Command
				if status.Detail != "" {
					detail = status.Detail
				}
				rows = append(rows, []string{
					status.Name,
					colorStatus(out, status.Available, state),
					detail,
					status.Description,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Status", "Command", "Used for"}, rows, nil))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
