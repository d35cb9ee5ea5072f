package ffprobe

import "testing"

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1280, Height: 720},
		},
		Format: Format{
			Duration: "12.5",
			Size:     "4096",
		},
	}
	if !result.HasVideoStream() {
		t.Fatal("expected a video stream")
	}
	if result.DurationMs() != 12500 {
		t.Fatalf("unexpected duration: %d", result.DurationMs())
	}
	if result.SizeBytes() != 4096 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if result.HasVideoStream() {
		t.Fatal("expected no video stream")
	}
	if result.DurationMs() != 0 {
		t.Fatalf("expected duration 0, got %d", result.DurationMs())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
