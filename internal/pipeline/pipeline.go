// Package pipeline drives a stopped recording session through artifact
// readiness, frame extraction, text recognition, and pairing analysis,
// keeping the session store's lifecycle state current along the way.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"keyreel/internal/analysis"
	"keyreel/internal/artifacts"
	"keyreel/internal/config"
	"keyreel/internal/events"
	"keyreel/internal/frames"
	"keyreel/internal/logging"
	"keyreel/internal/ocr"
	"keyreel/internal/progress"
	"keyreel/internal/readiness"
	"keyreel/internal/services"
	"keyreel/internal/sessions"
)

// Pipeline owns the post-processing stages for one or more sessions.
type Pipeline struct {
	logger    *slog.Logger
	store     *sessions.Store
	waiter    *readiness.Waiter
	extractor *frames.Extractor
	processor *ocr.Processor
	analyzer  *analysis.Analyzer
	sink      progress.Sink
}

// New assembles a pipeline from configuration. The store may be nil, in
// which case lifecycle bookkeeping is skipped.
func New(logger *slog.Logger, cfg *config.Config, store *sessions.Store) *Pipeline {
	return &Pipeline{
		logger: logging.NewComponentLogger(logger, "pipeline"),
		store:  store,
		waiter: readiness.New(logger,
			time.Duration(cfg.Workflow.ReadyPollMs)*time.Millisecond,
			time.Duration(cfg.Workflow.ReadyTimeoutMs)*time.Millisecond),
		extractor: frames.New(logger, cfg.FFmpegBinary(), cfg.FFprobeBinary(), frames.Options{
			OnlyDown:    cfg.Extraction.OnlyDown,
			Workers:     cfg.Extraction.Workers,
			TaskTimeout: time.Duration(cfg.Extraction.TaskTimeoutSeconds) * time.Second,
		}),
		processor: ocr.New(logger, ocr.NewTesseractFactory(), ocr.Options{
			Workers:     cfg.OCR.Workers,
			TaskTimeout: time.Duration(cfg.OCR.TaskTimeoutSeconds) * time.Second,
		}),
		analyzer: analysis.New(logger),
		sink:     progress.NewLogSink(logger),
	}
}

// WithExtractor replaces the frame extractor.
func (p *Pipeline) WithExtractor(extractor *frames.Extractor) *Pipeline {
	p.extractor = extractor
	return p
}

// WithProcessor replaces the recognition processor.
func (p *Pipeline) WithProcessor(processor *ocr.Processor) *Pipeline {
	p.processor = processor
	return p
}

// WithWaiter replaces the readiness waiter.
func (p *Pipeline) WithWaiter(waiter *readiness.Waiter) *Pipeline {
	p.waiter = waiter
	return p
}

// WithSink replaces the progress sink.
func (p *Pipeline) WithSink(sink progress.Sink) *Pipeline {
	p.sink = sink
	return p
}

// Run waits for outputDir's artifacts and processes the session end to end,
// returning the final analysis. A directory already being processed by
// another Run call is skipped and returns nil. On readiness timeout the
// session is marked timed out; any stage failure marks it failed.
func (p *Pipeline) Run(ctx context.Context, outputDir string) (*analysis.Result, error) {
	p.setStatus(ctx, outputDir, sessions.StatusAwaitingArtifacts)

	var result *analysis.Result
	dispatched, err := p.waiter.Dispatch(ctx, outputDir, func(ctx context.Context, dir string) error {
		processed, processErr := p.process(ctx, dir)
		result = processed
		return processErr
	})
	if err != nil {
		if errors.Is(err, services.ErrTimeout) {
			p.markFailure(ctx, outputDir, sessions.StatusTimedOut, err)
		} else {
			p.markFailure(ctx, outputDir, sessions.StatusFailed, err)
		}
		return nil, err
	}
	if !dispatched {
		p.logger.Info("session already in flight, skipping",
			logging.String("directory", outputDir))
		return nil, nil
	}
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, outputDir string) (*analysis.Result, error) {
	p.setStatus(ctx, outputDir, sessions.StatusExtracting)
	index, err := p.extractor.Extract(ctx, outputDir, p.sink)
	if err != nil {
		return nil, err
	}

	p.setStatus(ctx, outputDir, sessions.StatusRecognizing)
	report, err := p.processor.Process(ctx, outputDir, index, p.sink)
	if err != nil {
		return nil, err
	}

	timeline, err := events.LoadLog(artifacts.EventLogPath(outputDir))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "load events", outputDir, err)
	}

	result, err := p.analyzer.Analyze(outputDir, timeline, report)
	if err != nil {
		return nil, err
	}

	p.setStatus(ctx, outputDir, sessions.StatusAnalyzed)
	return result, nil
}

func (p *Pipeline) setStatus(ctx context.Context, outputDir string, status sessions.Status) {
	record := p.lookup(ctx, outputDir)
	if record == nil {
		return
	}
	if err := p.store.SetStatus(ctx, record.SessionID, status); err != nil {
		p.logger.Warn("could not update session status",
			logging.String("session_id", record.SessionID),
			logging.String("status", string(status)),
			logging.Error(err))
	}
}

func (p *Pipeline) markFailure(ctx context.Context, outputDir string, status sessions.Status, cause error) {
	record := p.lookup(ctx, outputDir)
	if record == nil {
		return
	}
	if err := p.store.MarkFailed(ctx, record.SessionID, status, cause.Error()); err != nil {
		p.logger.Warn("could not mark session failed",
			logging.String("session_id", record.SessionID),
			logging.Error(err))
	}
}

func (p *Pipeline) lookup(ctx context.Context, outputDir string) *sessions.Record {
	if p.store == nil {
		return nil
	}
	record, err := p.store.FindByOutputDir(ctx, outputDir)
	if err != nil {
		p.logger.Warn("session lookup failed",
			logging.String("directory", outputDir),
			logging.Error(err))
		return nil
	}
	return record
}
