// Package readiness gates post-processing on the arrival of a session's two
// input artifacts. The event log and the video file are written by different
// producers with no ordering between them, so the pipeline polls until both
// are present or a deadline passes.
package readiness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"keyreel/internal/artifacts"
	"keyreel/internal/fileutil"
	"keyreel/internal/logging"
	"keyreel/internal/services"
)

const (
	// DefaultPollInterval is how often the artifact predicate is re-checked.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultTimeout bounds the total wait for a session's artifacts.
	DefaultTimeout = 20 * time.Second
)

// TriggerFunc runs the downstream stage once a session directory is ready.
type TriggerFunc func(ctx context.Context, outputDir string) error

// Waiter polls session directories for artifact readiness and dispatches each
// ready directory to a trigger exactly once.
type Waiter struct {
	logger       *slog.Logger
	pollInterval time.Duration
	timeout      time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a Waiter. Non-positive intervals fall back to the defaults.
func New(logger *slog.Logger, pollInterval, timeout time.Duration) *Waiter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Waiter{
		logger:       logging.NewComponentLogger(logger, "readiness"),
		pollInterval: pollInterval,
		timeout:      timeout,
		inFlight:     make(map[string]struct{}),
	}
}

// Ready reports whether outputDir holds both input artifacts: the event log
// must exist and the video must exist with a non-zero size. The size check
// guards against a container that has been created but not yet flushed.
func Ready(outputDir string) bool {
	return fileutil.NonEmptyFile(artifacts.EventLogPath(outputDir)) &&
		fileutil.NonEmptyFile(artifacts.VideoPath(outputDir))
}

// Wait blocks until outputDir becomes ready, the timeout elapses, or ctx is
// canceled. A timeout names the artifact that never arrived.
func (w *Waiter) Wait(ctx context.Context, outputDir string) error {
	if Ready(outputDir) {
		return nil
	}

	deadline := time.Now().Add(w.timeout)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Debug("waiting for session artifacts",
		logging.String("directory", outputDir),
		logging.Duration("timeout", w.timeout))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if Ready(outputDir) {
				return nil
			}
			if time.Now().After(deadline) {
				return w.timeoutError(outputDir)
			}
		}
	}
}

// Dispatch waits for outputDir and invokes trigger once it is ready. A
// directory already being waited on or processed is skipped, so racing
// notifications (stop completion plus a redundant event-log write) cannot run
// the downstream stage twice. The boolean reports whether trigger ran.
func (w *Waiter) Dispatch(ctx context.Context, outputDir string, trigger TriggerFunc) (bool, error) {
	w.mu.Lock()
	if _, exists := w.inFlight[outputDir]; exists {
		w.mu.Unlock()
		w.logger.Debug("session already scheduled, skipping",
			logging.String("directory", outputDir))
		return false, nil
	}
	w.inFlight[outputDir] = struct{}{}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inFlight, outputDir)
		w.mu.Unlock()
	}()

	if err := w.Wait(ctx, outputDir); err != nil {
		return false, err
	}
	w.logger.Info("session artifacts ready",
		logging.String("directory", outputDir))
	return true, trigger(ctx, outputDir)
}

// timeoutError inspects the directory one final time so the failure names the
// artifact that was missing.
func (w *Waiter) timeoutError(outputDir string) error {
	message := fmt.Sprintf("%s not ready", artifacts.Video)
	if !fileutil.NonEmptyFile(artifacts.EventLogPath(outputDir)) {
		message = fmt.Sprintf("%s not found", artifacts.EventLog)
	}
	w.logger.Warn("timed out waiting for session artifacts",
		logging.String("directory", outputDir),
		logging.String("missing", message))
	return services.Wrap(services.ErrTimeout, "readiness", "wait", message, nil)
}
