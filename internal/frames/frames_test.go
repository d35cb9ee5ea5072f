package frames_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"keyreel/internal/frames"
	"keyreel/internal/logging"
	"keyreel/internal/progress"
	"keyreel/internal/services"
)

func writeSession(t *testing.T, eventsJSON string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "events.json"), []byte(eventsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("container"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// fakeDecoder records each invocation's args and writes the requested frame
// file unless the target name matches failOn.
type fakeDecoder struct {
	mu     sync.Mutex
	calls  [][]string
	failOn string
}

func (f *fakeDecoder) run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	target := args[len(args)-1]
	if f.failOn != "" && strings.Contains(target, f.failOn) {
		return []byte("decode error: invalid data"), errors.New("exit status 1")
	}
	if err := os.WriteFile(target, []byte("png"), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func newExtractor(t *testing.T, decoder *fakeDecoder, opts frames.Options, durationMs int64) *frames.Extractor {
	t.Helper()
	extractor := frames.New(logging.NewNop(), "ffmpeg", "ffprobe", opts)
	extractor.WithRunner(decoder.run)
	extractor.WithDurationProbe(func(context.Context, string) (int64, error) {
		return durationMs, nil
	})
	return extractor
}

const sampleLog = `[
	{"key":"Z","state":"down","timestampMs":100},
	{"key":"Z","state":"up","timestampMs":300},
	{"key":"X","state":"down","timestampMs":500}
]`

func TestExtractOnlyDownEvents(t *testing.T) {
	dir := writeSession(t, sampleLog)
	decoder := &fakeDecoder{}
	extractor := newExtractor(t, decoder, frames.Options{OnlyDown: true}, 0)

	index, err := extractor.Extract(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if index.Count != 2 {
		t.Fatalf("count = %d, want 2", index.Count)
	}
	if len(index.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(index.Frames))
	}

	first := index.Frames[0]
	if first.Index != 1 || first.Key != "Z" || first.State != "down" || first.TimestampMs != 100 {
		t.Fatalf("unexpected first frame: %+v", first)
	}
	if first.File == nil || filepath.Base(*first.File) != "001_z_down_100ms.png" {
		t.Fatalf("unexpected first frame file: %v", first.File)
	}
	if second := index.Frames[1]; filepath.Base(*second.File) != "002_x_down_500ms.png" {
		t.Fatalf("unexpected second frame file: %v", *second.File)
	}

	loaded, err := frames.LoadIndex(index.FramesDir)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if loaded.Count != index.Count || len(loaded.Frames) != len(index.Frames) {
		t.Fatalf("persisted index diverges: %+v", loaded)
	}
}

func TestExtractSeeksAfterInput(t *testing.T) {
	dir := writeSession(t, `[{"key":"Z","state":"down","timestampMs":1234}]`)
	decoder := &fakeDecoder{}
	extractor := newExtractor(t, decoder, frames.Options{OnlyDown: true}, 0)

	if _, err := extractor.Extract(context.Background(), dir, nil); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	args := decoder.calls[0]
	inputAt, seekAt := -1, -1
	for i, arg := range args {
		switch arg {
		case "-i":
			inputAt = i
		case "-ss":
			seekAt = i
		}
	}
	if inputAt == -1 || seekAt == -1 || seekAt < inputAt {
		t.Fatalf("seek must follow the input for frame accuracy, args: %v", args)
	}
	if args[seekAt+1] != "1.234" {
		t.Fatalf("seek position = %q, want 1.234", args[seekAt+1])
	}
}

func TestExtractClampsTimestampToDuration(t *testing.T) {
	dir := writeSession(t, `[{"key":"Z","state":"down","timestampMs":5000}]`)
	decoder := &fakeDecoder{}
	extractor := newExtractor(t, decoder, frames.Options{OnlyDown: true}, 1000)

	index, err := extractor.Extract(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := filepath.Base(*index.Frames[0].File); got != "001_z_down_999ms.png" {
		t.Fatalf("clamped file = %q, want 001_z_down_999ms.png", got)
	}
	// The original event timestamp stays on the result for downstream pairing.
	if index.Frames[0].TimestampMs != 5000 {
		t.Fatalf("result timestamp = %d, want 5000", index.Frames[0].TimestampMs)
	}
}

func TestExtractEmptyLogIsTerminalNotError(t *testing.T) {
	dir := writeSession(t, `[]`)
	decoder := &fakeDecoder{}
	extractor := newExtractor(t, decoder, frames.Options{OnlyDown: true}, 0)

	index, err := extractor.Extract(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if index.Count != 0 || index.Reason != "no_events" {
		t.Fatalf("expected empty no_events index, got %+v", index)
	}
	if len(decoder.calls) != 0 {
		t.Fatalf("decoder should not run with no events, ran %d times", len(decoder.calls))
	}
	if _, err := frames.LoadIndex(index.FramesDir); err != nil {
		t.Fatalf("empty index should still be persisted: %v", err)
	}
}

func TestExtractFallsBackWhenNoDownEvents(t *testing.T) {
	dir := writeSession(t, `[{"key":"Z","state":"up","timestampMs":250}]`)
	decoder := &fakeDecoder{}
	extractor := newExtractor(t, decoder, frames.Options{OnlyDown: true}, 0)

	index, err := extractor.Extract(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(index.Frames) != 1 || index.Frames[0].State != "up" {
		t.Fatalf("expected fallback to the unfiltered set, got %+v", index.Frames)
	}
}

func TestExtractRecordsPerEventFailure(t *testing.T) {
	dir := writeSession(t, sampleLog)
	decoder := &fakeDecoder{failOn: "002_x_down"}
	extractor := newExtractor(t, decoder, frames.Options{OnlyDown: true}, 0)

	index, err := extractor.Extract(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("per-event failures must not fail the batch: %v", err)
	}
	if index.Count != 1 {
		t.Fatalf("count = %d, want 1", index.Count)
	}

	failed := index.Frames[1]
	if failed.File != nil {
		t.Fatalf("failed frame should have nil file, got %v", *failed.File)
	}
	if !strings.Contains(failed.Error, "invalid data") {
		t.Fatalf("failure should carry decoder output, got %q", failed.Error)
	}
	if index.Frames[0].File == nil {
		t.Fatal("sibling task should have succeeded")
	}
}

func TestExtractMissingVideoIsFatal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "events.json"), []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	extractor := newExtractor(t, &fakeDecoder{}, frames.Options{OnlyDown: true}, 0)
	if _, err := extractor.Extract(context.Background(), dir, nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestExtractMissingDecoderIsFatal(t *testing.T) {
	dir := writeSession(t, sampleLog)
	t.Setenv("PATH", t.TempDir())

	extractor := frames.New(logging.NewNop(), "keyreel-no-such-decoder", "ffprobe", frames.Options{OnlyDown: true})
	if _, err := extractor.Extract(context.Background(), dir, nil); !errors.Is(err, services.ErrDecoderNotFound) {
		t.Fatalf("expected decoder-not-found error, got %v", err)
	}
}

func TestExtractReusesCollisionFreeDirectory(t *testing.T) {
	dir := writeSession(t, sampleLog)
	// Occupy the preferred directory name with existing content.
	old := filepath.Join(dir, "frames")
	if err := os.MkdirAll(old, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(old, "index.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	extractor := newExtractor(t, &fakeDecoder{}, frames.Options{OnlyDown: true}, 0)
	index, err := extractor.Extract(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if filepath.Base(index.FramesDir) != "frames-2" {
		t.Fatalf("frames dir = %q, want frames-2", index.FramesDir)
	}
}

func TestExtractReportsProgress(t *testing.T) {
	dir := writeSession(t, sampleLog)
	recorder := &progress.Recorder{}
	extractor := newExtractor(t, &fakeDecoder{}, frames.Options{OnlyDown: true}, 0)

	if _, err := extractor.Extract(context.Background(), dir, recorder); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	got := recorder.Snapshot()
	if len(got) != 4 {
		t.Fatalf("expected started + 2 progress + completed, got %v", got)
	}
	if got[0] != "extract:started" || got[len(got)-1] != "extract:completed" {
		t.Fatalf("unexpected notification order: %v", got)
	}
}
