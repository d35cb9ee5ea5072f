// Package frames turns a session's key-event timeline into one still image
// per selected event, decoded from the capture video at the event timestamp.
package frames

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"keyreel/internal/artifacts"
	"keyreel/internal/events"
	"keyreel/internal/fileutil"
	"keyreel/internal/logging"
	"keyreel/internal/media/ffprobe"
	"keyreel/internal/progress"
	"keyreel/internal/services"
	"keyreel/internal/textutil"
	"keyreel/internal/workqueue"
)

const indexVersion = 1

// StageName identifies the extraction stage in progress reporting.
const StageName = "extract"

// Task is one pending decoder invocation.
type Task struct {
	Index             int
	Event             events.KeyEvent
	TargetTimestampMs int64
	OutputFile        string
}

// Result records the outcome of a single Task. File is nil and Error set when
// the decoder failed for that event; such failures never abort the batch.
type Result struct {
	Index       int     `json:"index"`
	Key         string  `json:"key"`
	State       string  `json:"state"`
	TimestampMs int64   `json:"timestampMs"`
	File        *string `json:"file"`
	Error       string  `json:"error,omitempty"`
}

// Index is the durable manifest of an extraction batch, written exactly once
// after every task settles.
type Index struct {
	Version   int      `json:"version"`
	Count     int      `json:"count"`
	Video     string   `json:"video"`
	FramesDir string   `json:"framesDir"`
	Reason    string   `json:"reason,omitempty"`
	Frames    []Result `json:"frames"`
}

// CommandRunner executes an external command and returns its combined output.
// Injected in tests to avoid spawning a real decoder.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// DurationFunc reports a video's duration in milliseconds, or 0 when unknown.
type DurationFunc func(ctx context.Context, path string) (int64, error)

// Options tunes an extraction batch.
type Options struct {
	// OnlyDown restricts extraction to key-down events. When filtering
	// removes every event the unfiltered set is used instead.
	OnlyDown bool
	// Workers bounds concurrent decoder invocations. 0 selects the default
	// clamp(2, 8, cpu-1).
	Workers int
	// TaskTimeout bounds a single decoder invocation. 0 disables the bound.
	TaskTimeout time.Duration
}

// Extractor drives single-frame decodes through a bounded work queue.
type Extractor struct {
	logger        *slog.Logger
	decoderBinary string
	probeBinary   string
	opts          Options
	run           CommandRunner
	probe         DurationFunc
	lookPath      func(string) (string, error)
}

// New creates an Extractor that shells out to the given decoder binary.
func New(logger *slog.Logger, decoderBinary, probeBinary string, opts Options) *Extractor {
	e := &Extractor{
		logger:        logging.NewComponentLogger(logger, "frames"),
		decoderBinary: decoderBinary,
		probeBinary:   probeBinary,
		opts:          opts,
		lookPath:      exec.LookPath,
	}
	e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput()
	}
	e.probe = func(ctx context.Context, path string) (int64, error) {
		result, err := ffprobe.Inspect(ctx, e.probeBinary, path)
		if err != nil {
			return 0, err
		}
		return result.DurationMs(), nil
	}
	return e
}

// WithRunner replaces the decoder command runner. Binary resolution is left
// to the runner.
func (e *Extractor) WithRunner(run CommandRunner) *Extractor {
	e.run = run
	e.lookPath = func(name string) (string, error) { return name, nil }
	return e
}

// WithDurationProbe replaces the video duration probe.
func (e *Extractor) WithDurationProbe(probe DurationFunc) *Extractor {
	e.probe = probe
	return e
}

// Extract decodes one frame per selected event from outputDir's video and
// writes the frame index into a fresh frames directory. Missing decoder
// binary, missing video, and an unreadable event log fail the whole call;
// per-event decode failures are recorded in the returned index instead.
func (e *Extractor) Extract(ctx context.Context, outputDir string, sink progress.Sink) (*Index, error) {
	if sink == nil {
		sink = progress.Nop()
	}

	videoPath := artifacts.VideoPath(outputDir)
	if !fileutil.NonEmptyFile(videoPath) {
		return nil, services.Wrap(services.ErrNotFound, "frames", "extract", fmt.Sprintf("video %s missing or empty", videoPath), nil)
	}
	if _, err := e.lookPath(e.decoderBinary); err != nil {
		return nil, services.Wrap(services.ErrDecoderNotFound, "frames", "extract", fmt.Sprintf("binary %q not found", e.decoderBinary), err)
	}

	timeline, err := events.LoadLog(artifacts.EventLogPath(outputDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "frames", "extract", "event log missing", err)
		}
		return nil, services.Wrap(services.ErrValidation, "frames", "extract", "event log unreadable", err)
	}

	selected := timeline
	if e.opts.OnlyDown {
		selected = events.FilterDown(timeline)
	}

	framesDir, err := fileutil.UniqueDir(outputDir, artifacts.FramesDirBase)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "frames", "extract", "create frames directory", err)
	}

	index := &Index{
		Version:   indexVersion,
		Video:     videoPath,
		FramesDir: framesDir,
		Frames:    []Result{},
	}

	if len(selected) == 0 {
		index.Reason = "no_events"
		e.logger.Info("no events to extract", logging.String("directory", outputDir))
		if err := writeIndex(framesDir, index); err != nil {
			return nil, err
		}
		return index, nil
	}

	durationMs := e.probeDuration(ctx, videoPath)
	tasks := buildTasks(selected, framesDir, durationMs)
	results := make([]Result, len(tasks))

	total := len(tasks)
	sink.StageStarted(StageName, total)
	e.logger.Info("extracting frames",
		logging.String("video", videoPath),
		logging.Int("events", total),
		logging.Int("workers", workqueue.Clamp(e.opts.Workers)))

	var completed atomic.Int64
	queueErr := workqueue.Run(ctx, e.opts.Workers, total, func(taskCtx context.Context, i int) {
		results[i] = e.runTask(taskCtx, videoPath, tasks[i])
		sink.StageProgress(StageName, int(completed.Add(1)), total)
	})

	index.Frames = results
	index.Count = countExtracted(results)
	if err := writeIndex(framesDir, index); err != nil {
		return nil, err
	}
	sink.StageCompleted(StageName)
	if queueErr != nil {
		return index, queueErr
	}
	return index, nil
}

// probeDuration is best-effort: clamping is skipped when the duration cannot
// be determined.
func (e *Extractor) probeDuration(ctx context.Context, videoPath string) int64 {
	durationMs, err := e.probe(ctx, videoPath)
	if err != nil {
		e.logger.Warn("could not probe video duration, skipping timestamp clamp",
			logging.String("video", videoPath),
			logging.Error(err))
		return 0
	}
	return durationMs
}

func buildTasks(selected []events.KeyEvent, framesDir string, durationMs int64) []Task {
	tasks := make([]Task, len(selected))
	for i, event := range selected {
		ts := event.TimestampMs
		if ts < 0 {
			ts = 0
		}
		if durationMs > 0 && ts > durationMs-1 {
			ts = durationMs - 1
		}
		name := fmt.Sprintf("%03d_%s_%s_%dms.png",
			i+1,
			textutil.SanitizeToken(event.Key),
			textutil.SanitizeToken(event.State),
			ts)
		tasks[i] = Task{
			Index:             i + 1,
			Event:             event,
			TargetTimestampMs: ts,
			OutputFile:        filepath.Join(framesDir, name),
		}
	}
	return tasks
}

func (e *Extractor) runTask(ctx context.Context, videoPath string, task Task) Result {
	result := Result{
		Index:       task.Index,
		Key:         task.Event.Key,
		State:       task.Event.State,
		TimestampMs: task.Event.TimestampMs,
	}

	if e.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.TaskTimeout)
		defer cancel()
	}

	// Seek after the input so the decoder decodes up to the exact frame
	// instead of snapping to the nearest keyframe.
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-ss", formatSeconds(task.TargetTimestampMs),
		"-frames:v", "1",
		task.OutputFile,
	}

	output, err := e.run(ctx, e.decoderBinary, args...)
	if err != nil {
		result.Error = decodeFailure(err, output)
		e.logger.Warn("frame decode failed",
			logging.Int("index", task.Index),
			logging.String("key", task.Event.Key),
			logging.String("error", result.Error))
		return result
	}
	if !fileutil.NonEmptyFile(task.OutputFile) {
		result.Error = "decoder produced no frame"
		return result
	}

	file := task.OutputFile
	result.File = &file
	return result
}

func decodeFailure(err error, output []byte) string {
	detail := strings.TrimSpace(string(output))
	if detail == "" {
		return err.Error()
	}
	lines := strings.Split(detail, "\n")
	return fmt.Sprintf("%v: %s", err, strings.TrimSpace(lines[len(lines)-1]))
}

func countExtracted(results []Result) int {
	count := 0
	for _, result := range results {
		if result.File != nil {
			count++
		}
	}
	return count
}

func formatSeconds(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

func writeIndex(framesDir string, index *Index) error {
	path := filepath.Join(framesDir, artifacts.FrameIndex)
	if err := fileutil.WriteJSON(path, index); err != nil {
		return services.Wrap(services.ErrExternalTool, "frames", "write index", path, err)
	}
	return nil
}

// LoadIndex reads a frame index manifest from a frames directory.
func LoadIndex(framesDir string) (*Index, error) {
	var index Index
	if err := fileutil.ReadJSON(filepath.Join(framesDir, artifacts.FrameIndex), &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// FindFramesDir locates the most recently created frames directory under a
// session directory, accounting for the numeric-suffix collision scheme.
func FindFramesDir(outputDir string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", err
	}
	best := ""
	var bestTime time.Time
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), artifacts.FramesDirBase) {
			continue
		}
		candidate := filepath.Join(outputDir, entry.Name())
		if !fileutil.NonEmptyFile(filepath.Join(candidate, artifacts.FrameIndex)) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = candidate
			bestTime = info.ModTime()
		}
	}
	if best == "" {
		return "", services.Wrap(services.ErrNotFound, "frames", "locate", fmt.Sprintf("no frames directory with %s under %s", artifacts.FrameIndex, outputDir), nil)
	}
	return best, nil
}
