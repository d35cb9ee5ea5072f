package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"keyreel/internal/events"
)

// WriteSessionDir creates a session directory containing an event log and a
// non-empty video file, returning its path.
func WriteSessionDir(t testing.TB, timeline []events.KeyEvent) string {
	t.Helper()

	dir := t.TempDir()
	WriteEventLog(t, dir, timeline)
	WriteVideo(t, dir)
	return dir
}

// WriteEventLog persists a timeline as events.json in dir.
func WriteEventLog(t testing.TB, dir string, timeline []events.KeyEvent) {
	t.Helper()

	data, err := json.Marshal(timeline)
	if err != nil {
		t.Fatalf("marshal events: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "events.json"), data, 0o644); err != nil {
		t.Fatalf("write events.json: %v", err)
	}
}

// WriteVideo drops a placeholder non-empty video.mp4 in dir.
func WriteVideo(t testing.TB, dir string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("container"), 0o644); err != nil {
		t.Fatalf("write video.mp4: %v", err)
	}
}

// Press appends a down/up pair for key to a timeline.
func Press(timeline []events.KeyEvent, key string, downMs, upMs int64) []events.KeyEvent {
	timeline = append(timeline, events.KeyEvent{Key: key, State: events.StateDown, TimestampMs: downMs})
	return append(timeline, events.KeyEvent{Key: key, State: events.StateUp, TimestampMs: upMs})
}
