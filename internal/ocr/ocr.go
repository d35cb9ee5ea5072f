// Package ocr recognizes the text visible in extracted frames using a
// bounded pool of recognition engines.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"keyreel/internal/artifacts"
	"keyreel/internal/fileutil"
	"keyreel/internal/frames"
	"keyreel/internal/logging"
	"keyreel/internal/progress"
	"keyreel/internal/services"
	"keyreel/internal/textutil"
	"keyreel/internal/workqueue"
)

const reportVersion = 1

// StageName identifies the recognition stage in progress reporting.
const StageName = "recognize"

// Engine recognizes text in one image file. An Engine is used by a single
// worker at a time; it does not need to be safe for concurrent use.
type Engine interface {
	// Recognize returns the recognized text and a 0-100 confidence score.
	Recognize(imagePath string) (text string, confidence float64, err error)
	Close() error
}

// EngineFactory creates one Engine per pool worker.
type EngineFactory func() (Engine, error)

// Result is the recognition outcome for one frame. A failed job keeps its
// slot with empty text, zero confidence, and an error description.
type Result struct {
	Index       int     `json:"index"`
	File        string  `json:"file"`
	Key         string  `json:"key"`
	State       string  `json:"state"`
	TimestampMs int64   `json:"timestampMs"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	Error       string  `json:"error,omitempty"`
}

// Report is the persisted ocr.json artifact.
type Report struct {
	Version  int      `json:"version"`
	OutDir   string   `json:"outDir"`
	ShotsDir string   `json:"shotsDir"`
	Total    int      `json:"total"`
	Results  []Result `json:"results"`
}

// Options tunes a recognition batch.
type Options struct {
	// Workers bounds the engine pool. 0 selects clamp(2, 8, cpu-1).
	Workers int
	// TaskTimeout bounds a single recognition job. 0 disables the bound. A
	// timed-out engine is retired and replaced rather than reused.
	TaskTimeout time.Duration
}

// Processor runs recognition jobs across an engine pool and persists the
// report.
type Processor struct {
	logger  *slog.Logger
	factory EngineFactory
	opts    Options
}

// New creates a Processor backed by factory-created engines.
func New(logger *slog.Logger, factory EngineFactory, opts Options) *Processor {
	return &Processor{
		logger:  logging.NewComponentLogger(logger, "ocr"),
		factory: factory,
		opts:    opts,
	}
}

// Process recognizes every frame in the index and writes ocr.json into
// outputDir. Jobs are distributed across the pool; a job failure is recorded
// in its result slot and never aborts the batch. Results are ordered by frame
// index regardless of completion order.
func (p *Processor) Process(ctx context.Context, outputDir string, index *frames.Index, sink progress.Sink) (*Report, error) {
	if sink == nil {
		sink = progress.Nop()
	}

	jobs := make([]frames.Result, len(index.Frames))
	copy(jobs, index.Frames)
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Index < jobs[j].Index })

	report := &Report{
		Version:  reportVersion,
		OutDir:   outputDir,
		ShotsDir: index.FramesDir,
		Total:    len(jobs),
		Results:  make([]Result, len(jobs)),
	}

	if len(jobs) == 0 {
		if err := p.writeReport(outputDir, report); err != nil {
			return nil, err
		}
		return report, nil
	}

	workers := workqueue.Clamp(p.opts.Workers)
	if p.opts.Workers <= 0 {
		workers = workqueue.DefaultWorkers()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool, err := p.buildPool(workers)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "create engine pool", "", err)
	}
	defer p.drainPool(pool)

	total := len(jobs)
	sink.StageStarted(StageName, total)
	p.logger.Info("recognizing frames",
		logging.Int("frames", total),
		logging.Int("workers", workers))

	var completed atomic.Int64
	queueErr := workqueue.Run(ctx, workers, total, func(taskCtx context.Context, i int) {
		report.Results[i] = p.runJob(taskCtx, pool, jobs[i])
		sink.StageProgress(StageName, int(completed.Add(1)), total)
	})

	if err := p.writeReport(outputDir, report); err != nil {
		return nil, err
	}
	sink.StageCompleted(StageName)
	if queueErr != nil {
		return report, queueErr
	}
	return report, nil
}

func (p *Processor) buildPool(workers int) (chan Engine, error) {
	pool := make(chan Engine, workers)
	for i := 0; i < workers; i++ {
		engine, err := p.factory()
		if err != nil {
			p.drainPool(pool)
			return nil, err
		}
		pool <- engine
	}
	return pool, nil
}

func (p *Processor) drainPool(pool chan Engine) {
	for {
		select {
		case engine := <-pool:
			if err := engine.Close(); err != nil {
				p.logger.Warn("engine close failed", logging.Error(err))
			}
		default:
			return
		}
	}
}

func (p *Processor) runJob(ctx context.Context, pool chan Engine, frame frames.Result) Result {
	result := Result{
		Index:       frame.Index,
		Key:         frame.Key,
		State:       frame.State,
		TimestampMs: frame.TimestampMs,
	}
	if frame.File == nil {
		result.Error = "frame not extracted"
		if frame.Error != "" {
			result.Error = fmt.Sprintf("frame not extracted: %s", frame.Error)
		}
		return result
	}
	result.File = *frame.File

	var engine Engine
	select {
	case engine = <-pool:
	case <-ctx.Done():
		result.Error = ctx.Err().Error()
		return result
	}

	text, confidence, err := p.recognize(pool, engine, result.File)
	if err != nil {
		result.Error = err.Error()
		p.logger.Warn("recognition failed",
			logging.Int("index", frame.Index),
			logging.String("file", result.File),
			logging.Error(err))
		return result
	}

	result.Text = textutil.NormalizeRecognized(text)
	result.Confidence = confidence
	return result
}

type recognition struct {
	text       string
	confidence float64
	err        error
}

// recognize runs one job on engine and returns it to the pool. With a task
// timeout configured, a job that overruns gets an error result and its engine
// is retired once the stuck call returns; a replacement engine keeps the pool
// at full strength.
func (p *Processor) recognize(pool chan Engine, engine Engine, imagePath string) (string, float64, error) {
	if p.opts.TaskTimeout <= 0 {
		text, confidence, err := engine.Recognize(imagePath)
		pool <- engine
		return text, confidence, err
	}

	done := make(chan recognition, 1)
	go func() {
		text, confidence, err := engine.Recognize(imagePath)
		done <- recognition{text, confidence, err}
	}()

	timer := time.NewTimer(p.opts.TaskTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		pool <- engine
		return out.text, out.confidence, out.err
	case <-timer.C:
		go p.retire(pool, engine, done)
		return "", 0, errors.New("recognition timed out")
	}
}

// retire waits out a stuck engine call, closes the engine, and restores the
// pool with a fresh one. If no replacement can be built the old engine is
// returned instead so the pool never shrinks.
func (p *Processor) retire(pool chan Engine, engine Engine, done chan recognition) {
	<-done
	replacement, err := p.factory()
	if err != nil {
		p.logger.Warn("could not replace timed-out engine", logging.Error(err))
		pool <- engine
		return
	}
	if err := engine.Close(); err != nil {
		p.logger.Warn("engine close failed", logging.Error(err))
	}
	pool <- replacement
}

func (p *Processor) writeReport(outputDir string, report *Report) error {
	path := artifacts.OCRPath(outputDir)
	if err := fileutil.WriteJSON(path, report); err != nil {
		return services.Wrap(services.ErrExternalTool, "ocr", "write report", path, err)
	}
	return nil
}

// LoadReport reads a persisted ocr.json from a session directory.
func LoadReport(outputDir string) (*Report, error) {
	var report Report
	if err := fileutil.ReadJSON(artifacts.OCRPath(outputDir), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
