package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyRunning signals that a capture session is active and a second
	// one was requested.
	ErrAlreadyRunning = errors.New("recording already running")
	// ErrNotRunning signals a stop or status request with no active session.
	ErrNotRunning = errors.New("no recording running")
	// ErrEncoderNotFound signals that the capture encoder binary is missing.
	ErrEncoderNotFound = errors.New("encoder not found")
	// ErrDecoderNotFound signals that the frame decoder binary is missing.
	ErrDecoderNotFound = errors.New("decoder not found")

	ErrExternalTool = errors.New("external tool error")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error belongs to the abort-before-work class:
// missing binaries, missing inputs, or invalid session state. Per-item
// failures inside a batch are never wrapped with these markers.
func IsFatal(err error) bool {
	return errors.Is(err, ErrEncoderNotFound) ||
		errors.Is(err, ErrDecoderNotFound) ||
		errors.Is(err, ErrAlreadyRunning) ||
		errors.Is(err, ErrNotRunning) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
