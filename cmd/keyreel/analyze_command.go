package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"keyreel/internal/analysis"
	"keyreel/internal/pipeline"
	"keyreel/internal/sessions"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var eventsFile string

	cmd := &cobra.Command{
		Use:   "analyze <session-dir>",
		Short: "Run frame extraction, recognition, and pairing over a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			dir := args[0]
			if eventsFile != "" {
				if err := copyEventLog(eventsFile, dir); err != nil {
					return err
				}
			}

			store, err := sessions.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			result, err := pipeline.New(logger, cfg, store).Run(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Session is already being processed.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAnalysisSummary(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&eventsFile, "events", "", "Copy this key-event log into the session as events.json first")
	return cmd
}

func renderAnalysisSummary(result *analysis.Result) string {
	rows := make([][]string, 0, len(result.Pairs))
	for _, pair := range result.Pairs {
		rows = append(rows, []string{
			pair.Key,
			formatNullableMs(pair.DownTimestampMs),
			formatNullableMs(pair.UpTimestampMs),
			formatNullableMs(pair.DurationMs),
			pair.OCRText,
			formatConfidence(pair),
			pair.Warning,
		})
	}
	table := renderTable(
		[]string{"KEY", "DOWN", "UP", "DURATION", "TEXT", "CONF", "WARNING"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	)
	summary := fmt.Sprintf("%d events, %d downs, %d pairs",
		result.Summary.TotalEvents, result.Summary.TotalDown, result.Summary.TotalPairs)
	return table + "\n" + summary
}

func formatNullableMs(value *int64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatInt(*value, 10) + "ms"
}

func formatConfidence(pair analysis.Pair) string {
	if pair.OCRFrameFile == "" && pair.OCRText == "" {
		return "-"
	}
	return fmt.Sprintf("%.1f", pair.OCRConfidence)
}
