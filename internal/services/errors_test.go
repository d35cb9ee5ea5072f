package services_test

import (
	"errors"
	"strings"
	"testing"

	"keyreel/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrDecoderNotFound, "frames", "spawn decoder", "ffmpeg missing", base)
	if !errors.Is(err, services.ErrDecoderNotFound) {
		t.Fatalf("expected ErrDecoderNotFound, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if !strings.Contains(err.Error(), "frames: spawn decoder: ffmpeg missing") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToExternalTool(t *testing.T) {
	err := services.Wrap(nil, "ocr", "recognize", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{services.Wrap(services.ErrAlreadyRunning, "recorder", "start", "", nil), true},
		{services.Wrap(services.ErrEncoderNotFound, "recorder", "start", "", nil), true},
		{services.Wrap(services.ErrTimeout, "readiness", "wait", "video not ready", nil), false},
		{services.Wrap(services.ErrExternalTool, "frames", "decode", "", nil), false},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.fatal {
			t.Errorf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}
