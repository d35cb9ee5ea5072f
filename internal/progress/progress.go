// Package progress decouples batch stages from whatever surface reports
// their advancement. Stages publish to a Sink; the CLI chooses the
// implementation.
package progress

import (
	"log/slog"
	"sync"

	"keyreel/internal/logging"
)

// Sink receives stage lifecycle notifications. Implementations must be safe
// for concurrent use; StageProgress is called from worker goroutines.
type Sink interface {
	StageStarted(stage string, total int)
	StageProgress(stage string, completed, total int)
	StageCompleted(stage string)
}

// Nop returns a sink that ignores all notifications.
func Nop() Sink {
	return nopSink{}
}

type nopSink struct{}

func (nopSink) StageStarted(string, int) {}

func (nopSink) StageProgress(string, int, int) {}

func (nopSink) StageCompleted(string) {}

// NewLogSink returns a sink that reports stage transitions through the
// logger. Per-item progress is logged at debug level to keep normal output
// quiet on large batches.
func NewLogSink(logger *slog.Logger) Sink {
	return &logSink{logger: logging.NewComponentLogger(logger, "progress")}
}

type logSink struct {
	logger *slog.Logger
}

func (s *logSink) StageStarted(stage string, total int) {
	s.logger.Info("stage started",
		logging.String("stage", stage),
		logging.Int("total", total))
}

func (s *logSink) StageProgress(stage string, completed, total int) {
	s.logger.Debug("stage progress",
		logging.String("stage", stage),
		logging.Int("completed", completed),
		logging.Int("total", total))
}

func (s *logSink) StageCompleted(stage string) {
	s.logger.Info("stage completed", logging.String("stage", stage))
}

// Recorder is a test sink capturing every notification in order.
type Recorder struct {
	mu     sync.Mutex
	Events []string
}

func (r *Recorder) StageStarted(stage string, total int) {
	r.append(stage + ":started")
}

func (r *Recorder) StageProgress(stage string, completed, total int) {
	r.append(stage + ":progress")
}

func (r *Recorder) StageCompleted(stage string) {
	r.append(stage + ":completed")
}

func (r *Recorder) append(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Snapshot returns a copy of the captured events.
func (r *Recorder) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	copy(out, r.Events)
	return out
}
