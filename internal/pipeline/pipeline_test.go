package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keyreel/internal/config"
	"keyreel/internal/frames"
	"keyreel/internal/logging"
	"keyreel/internal/ocr"
	"keyreel/internal/pipeline"
	"keyreel/internal/readiness"
	"keyreel/internal/services"
	"keyreel/internal/sessions"
)

const threePressLog = `[
	{"key":"Z","state":"down","timestampMs":100},
	{"key":"Z","state":"up","timestampMs":300},
	{"key":"Z","state":"down","timestampMs":500},
	{"key":"Z","state":"up","timestampMs":650},
	{"key":"Z","state":"down","timestampMs":900},
	{"key":"Z","state":"up","timestampMs":1000}
]`

func writeArtifacts(t *testing.T, dir, eventsJSON string, withVideo bool) {
	t.Helper()
	if eventsJSON != "" {
		if err := os.WriteFile(filepath.Join(dir, "events.json"), []byte(eventsJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if withVideo {
		if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("container"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fakeExtractor(t *testing.T) *frames.Extractor {
	t.Helper()
	extractor := frames.New(logging.NewNop(), "ffmpeg", "ffprobe", frames.Options{OnlyDown: true})
	extractor.WithRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		return nil, os.WriteFile(args[len(args)-1], []byte("png"), 0o644)
	})
	extractor.WithDurationProbe(func(context.Context, string) (int64, error) { return 0, nil })
	return extractor
}

func fakeProcessor() *ocr.Processor {
	factory := func() (ocr.Engine, error) {
		return staticEngine{}, nil
	}
	return ocr.New(logging.NewNop(), factory, ocr.Options{Workers: 2})
}

type staticEngine struct{}

func (staticEngine) Recognize(string) (string, float64, error) { return "Z", 95, nil }

func (staticEngine) Close() error { return nil }

func newPipeline(t *testing.T, store *sessions.Store) *pipeline.Pipeline {
	t.Helper()
	cfg := config.Default()
	return pipeline.New(logging.NewNop(), &cfg, store).
		WithExtractor(fakeExtractor(t)).
		WithProcessor(fakeProcessor()).
		WithWaiter(readiness.New(logging.NewNop(), 5*time.Millisecond, 50*time.Millisecond))
}

func openStore(t *testing.T) *sessions.Store {
	t.Helper()
	store, err := sessions.OpenPath(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunProcessesSessionEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, threePressLog, true)

	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "s1", dir, ""); err != nil {
		t.Fatal(err)
	}

	result, err := newPipeline(t, store).Run(ctx, dir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result == nil || result.Summary.TotalPairs != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	wantDurations := []int64{200, 150, 100}
	for i, want := range wantDurations {
		if result.Pairs[i].DurationMs == nil || *result.Pairs[i].DurationMs != want {
			t.Fatalf("pair %d duration wrong: %+v", i, result.Pairs[i])
		}
		if result.Pairs[i].OCRText != "Z" {
			t.Fatalf("pair %d text = %q", i, result.Pairs[i].OCRText)
		}
	}

	for _, artifact := range []string{"ocr.json", "analysis.json"} {
		if _, err := os.Stat(filepath.Join(dir, artifact)); err != nil {
			t.Fatalf("expected %s to be written: %v", artifact, err)
		}
	}

	record, err := store.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != sessions.StatusAnalyzed {
		t.Fatalf("session status = %q, want analyzed", record.Status)
	}
}

func TestRunMarksTimedOutWhenEventsNeverArrive(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, "", true)

	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "s1", dir, ""); err != nil {
		t.Fatal(err)
	}

	_, err := newPipeline(t, store).Run(ctx, dir)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	record, _ := store.GetBySessionID(ctx, "s1")
	if record.Status != sessions.StatusTimedOut {
		t.Fatalf("session status = %q, want timed_out", record.Status)
	}
	if !strings.Contains(record.ErrorMessage, "events.json") {
		t.Fatalf("error message should name the missing artifact: %q", record.ErrorMessage)
	}
}

func TestRunMarksFailedOnStageError(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, "{not json", true)

	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "s1", dir, ""); err != nil {
		t.Fatal(err)
	}

	_, err := newPipeline(t, store).Run(ctx, dir)
	if err == nil {
		t.Fatal("expected stage failure")
	}

	record, _ := store.GetBySessionID(ctx, "s1")
	if record.Status != sessions.StatusFailed {
		t.Fatalf("session status = %q, want failed", record.Status)
	}
}

func TestRunWithoutStore(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, threePressLog, true)

	result, err := newPipeline(t, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run without store failed: %v", err)
	}
	if result == nil || result.Summary.TotalPairs != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
