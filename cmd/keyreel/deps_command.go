package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyreel/internal/deps"
)

func newDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "deps",
		Short:       "Check availability of external binaries",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckBinaries(deps.Defaults())

			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "ok"
				detail := status.Command
				if !status.Available {
					state = "missing"
					detail = status.Detail
					if !status.Optional {
						missing++
					}
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(!status.Optional),
					state,
					detail,
					status.Description,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"NAME", "REQUIRED", "STATUS", "PATH", "DESCRIPTION"},
				rows,
				nil,
			))

			if missing > 0 {
				return fmt.Errorf("missing %d required binaries", missing)
			}
			return nil
		},
	}
}
