//go:build !linux

package inputmon

import (
	"context"
	"log/slog"

	"keyreel/internal/logging"
)

// Monitor is inert on platforms without udev.
type Monitor struct {
	logger *slog.Logger
}

// New creates a no-op monitor. The handler is never invoked.
func New(logger *slog.Logger, handler Handler) *Monitor {
	return &Monitor{logger: logging.NewComponentLogger(logger, "inputmon")}
}

// Start logs that hotplug diagnostics are unavailable and returns nil.
func (m *Monitor) Start(ctx context.Context) error {
	if m != nil {
		m.logger.Debug("input hotplug diagnostics unavailable on this platform")
	}
	return nil
}

// Stop is a no-op.
func (m *Monitor) Stop() {}

// Running always reports false.
func (m *Monitor) Running() bool { return false }
