package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"keyreel/internal/sessions"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions and their processing state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := sessions.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					strconv.FormatInt(record.ID, 10),
					record.SessionID,
					string(record.Status),
					formatDuration(record.DurationMs),
					record.CreatedAt.Local().Format(time.DateTime),
					record.OutputDir,
					record.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "SESSION", "STATUS", "DURATION", "CREATED", "DIRECTORY", "ERROR"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (0 for all)")
	return cmd
}

func formatDuration(durationMs int64) string {
	if durationMs <= 0 {
		return "-"
	}
	return (time.Duration(durationMs) * time.Millisecond).Round(time.Millisecond).String()
}
