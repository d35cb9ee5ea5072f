package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keyreel/internal/artifacts"
	"keyreel/internal/inputmon"
	"keyreel/internal/pipeline"
	"keyreel/internal/preflight"
	"keyreel/internal/recorder"
	"keyreel/internal/sessions"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var (
		x, y, width, height int
		outputDir           string
		eventsFile          string
		showRegion          bool
		scale720p           bool
		noAnalyze           bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a screen region, then extract, recognize, and pair key presses",
		Long: `Record captures the given screen region with ffmpeg until you press
Ctrl+C or Enter. After the recording stops it waits for the key-event log
(events.json) to appear in the session directory and runs the analysis
pipeline over the captured video.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cfg)
			if failed := preflight.Failed(results); len(failed) > 0 {
				fmt.Fprintln(out, renderPreflight(results))
				return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
			}

			store, err := sessions.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			manager := recorder.New(
				logger,
				cfg.FFmpegBinary(),
				filepath.Join(cfg.Paths.LogDir, "record.lock"),
				time.Duration(cfg.Capture.StopGraceMs)*time.Millisecond,
			)

			dir := outputDir
			if dir == "" {
				dir = filepath.Join(cfg.Paths.StagingDir, time.Now().Format("20060102-150405"))
			}

			region := recorder.Region{X: x, Y: y, Width: width, Height: height}
			session, err := manager.Start(cmd.Context(), region, dir, recorder.Options{
				ShowRegion: showRegion || cfg.Capture.ShowRegion,
				Scale720p:  scale720p || cfg.Capture.Scale720p,
			})
			if err != nil {
				return err
			}

			roiJSON, _ := json.Marshal(session.Region)
			if _, err := store.Create(cmd.Context(), session.ID, session.OutputDir, string(roiJSON)); err != nil {
				logger.Warn("could not persist session row", "error", err)
			}

			monitor := inputmon.New(logger, nil)
			_ = monitor.Start(cmd.Context())
			defer monitor.Stop()

			fmt.Fprintf(out, "Recording %dx%d at (%d,%d) into %s\n",
				session.Region.Width, session.Region.Height, session.Region.X, session.Region.Y, session.OutputDir)
			fmt.Fprintln(out, "Press Ctrl+C or Enter to stop.")

			waitForStop(cmd.Context(), cmd.InOrStdin())

			// Stop with a fresh context: the wait context is already canceled
			// when the user interrupted with Ctrl+C.
			stopResult, err := manager.Stop(context.Background())
			if err != nil {
				return err
			}
			if err := store.SetDuration(context.Background(), session.ID, stopResult.DurationMs); err != nil {
				logger.Warn("could not persist duration", "error", err)
			}
			fmt.Fprintf(out, "Recording stopped after %s", time.Duration(stopResult.DurationMs)*time.Millisecond)
			if stopResult.Forced {
				fmt.Fprint(out, " (encoder killed after grace period)")
			}
			fmt.Fprintln(out)
			if stopResult.ExitError != "" {
				fmt.Fprintf(out, "Encoder exit: %s (see %s)\n", stopResult.ExitError, session.LogPath)
			}

			if eventsFile != "" {
				if err := copyEventLog(eventsFile, session.OutputDir); err != nil {
					return err
				}
			}

			if noAnalyze {
				_ = store.SetStatus(context.Background(), session.ID, sessions.StatusAwaitingArtifacts)
				fmt.Fprintf(out, "Analysis skipped; run `keyreel analyze %s` once events.json is in place.\n", session.OutputDir)
				return nil
			}

			result, err := pipeline.New(logger, cfg, store).Run(context.Background(), session.OutputDir)
			if err != nil {
				return err
			}
			if result != nil {
				fmt.Fprintln(out, renderAnalysisSummary(result))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "Region left edge in pixels")
	cmd.Flags().IntVar(&y, "y", 0, "Region top edge in pixels")
	cmd.Flags().IntVar(&width, "width", 0, "Region width in pixels (required)")
	cmd.Flags().IntVar(&height, "height", 0, "Region height in pixels (required)")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Session directory (default: staging dir + timestamp)")
	cmd.Flags().StringVar(&eventsFile, "events", "", "Copy this key-event log into the session as events.json after stopping")
	cmd.Flags().BoolVar(&showRegion, "show-region", false, "Draw a border around the captured region")
	cmd.Flags().BoolVar(&scale720p, "scale-720p", false, "Downscale the capture to 1280x720")
	cmd.Flags().BoolVar(&noAnalyze, "no-analyze", false, "Stop after recording without running the pipeline")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

// waitForStop blocks until the user interrupts, the context ends, or stdin
// yields a line.
func waitForStop(ctx context.Context, stdin io.Reader) {
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := make(chan struct{}, 1)
	if stdin != nil {
		go func() {
			scanner := bufio.NewScanner(stdin)
			if scanner.Scan() {
				lines <- struct{}{}
			}
		}()
	}

	select {
	case <-signalCtx.Done():
	case <-lines:
	}
}

func copyEventLog(source, outputDir string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read event log %s: %w", source, err)
	}
	target := artifacts.EventLogPath(outputDir)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

func renderPreflight(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "ok"
		if !result.Passed {
			status = "FAILED"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	return renderTable([]string{"CHECK", "STATUS", "DETAIL"}, rows, nil)
}
