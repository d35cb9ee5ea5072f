// Package analysis reconciles a session's key-event timeline with its
// recognition results into paired press intervals, the pipeline's final
// artifact.
package analysis

import (
	"log/slog"

	"keyreel/internal/artifacts"
	"keyreel/internal/events"
	"keyreel/internal/fileutil"
	"keyreel/internal/logging"
	"keyreel/internal/ocr"
	"keyreel/internal/services"
)

const resultVersion = 1

// Summary gives the headline counts for an analysis run.
type Summary struct {
	TotalEvents int `json:"totalEvents"`
	TotalDown   int `json:"totalDown"`
	TotalPairs  int `json:"totalPairs"`
}

// Result is the persisted analysis.json artifact.
type Result struct {
	Version  int     `json:"version"`
	OutDir   string  `json:"outDir"`
	ShotsDir string  `json:"shotsDir"`
	Summary  Summary `json:"summary"`
	Pairs    []Pair  `json:"pairs"`
}

// Analyzer builds and persists pairing results.
type Analyzer struct {
	logger *slog.Logger
}

// New creates an Analyzer.
func New(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logging.NewComponentLogger(logger, "analysis")}
}

// Analyze pairs the timeline against the recognition report and writes
// analysis.json into outputDir. The timeline is consumed in log order; the
// event-log writer guarantees chronology, so a backward timestamp jump is
// logged but not corrected.
func (a *Analyzer) Analyze(outputDir string, timeline []events.KeyEvent, report *ocr.Report) (*Result, error) {
	a.warnOnBackwardJumps(timeline)

	var results []ocr.Result
	shotsDir := ""
	if report != nil {
		results = report.Results
		shotsDir = report.ShotsDir
	}

	pairs := Pairs(timeline, results)
	result := &Result{
		Version:  resultVersion,
		OutDir:   outputDir,
		ShotsDir: shotsDir,
		Summary: Summary{
			TotalEvents: len(timeline),
			TotalDown:   events.CountDown(timeline),
			TotalPairs:  len(pairs),
		},
		Pairs: pairs,
	}

	path := artifacts.AnalysisPath(outputDir)
	if err := fileutil.WriteJSON(path, result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analysis", "write result", path, err)
	}

	a.logger.Info("analysis complete",
		logging.String("directory", outputDir),
		logging.Int("events", result.Summary.TotalEvents),
		logging.Int("pairs", result.Summary.TotalPairs))
	return result, nil
}

func (a *Analyzer) warnOnBackwardJumps(timeline []events.KeyEvent) {
	var last int64
	for i, event := range timeline {
		if i > 0 && event.TimestampMs < last {
			a.logger.Debug("event log timestamp moved backward, trusting log order",
				logging.Int("position", i),
				logging.Int64("timestampMs", event.TimestampMs),
				logging.Int64("previousMs", last))
		}
		last = event.TimestampMs
	}
}

// LoadResult reads a persisted analysis.json from a session directory.
func LoadResult(outputDir string) (*Result, error) {
	var result Result
	if err := fileutil.ReadJSON(artifacts.AnalysisPath(outputDir), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
