// Package events models the key-event timeline written by the overlay UI.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// StateDown marks the beginning of a key press.
	StateDown = "down"
	// StateUp marks the end of a key press.
	StateUp = "up"
)

// KeyEvent is a single key transition with a millisecond timestamp. Events are
// produced externally and treated as immutable.
type KeyEvent struct {
	Key         string `json:"key"`
	State       string `json:"state"`
	TimestampMs int64  `json:"timestampMs"`
}

// Valid reports whether the event carries a key and a known state.
func (e KeyEvent) Valid() bool {
	if strings.TrimSpace(e.Key) == "" {
		return false
	}
	return e.State == StateDown || e.State == StateUp
}

// wrappedLog is the { "events": [...] } log shape.
type wrappedLog struct {
	Events []KeyEvent `json:"events"`
}

// LoadLog reads an event log file, accepting either a bare event array or an
// object wrapping an "events" array. Malformed individual events are dropped;
// a malformed file is an error.
func LoadLog(path string) ([]KeyEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeLog(data)
}

func decodeLog(data []byte) ([]KeyEvent, error) {
	var bare []KeyEvent
	if err := json.Unmarshal(data, &bare); err == nil {
		return keepValid(bare), nil
	}

	var wrapped wrappedLog
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse event log: %w", err)
	}
	return keepValid(wrapped.Events), nil
}

func keepValid(events []KeyEvent) []KeyEvent {
	kept := make([]KeyEvent, 0, len(events))
	for _, event := range events {
		if event.Valid() {
			kept = append(kept, event)
		}
	}
	return kept
}

// FilterDown returns the down events only. When no down events exist, the
// original slice is returned so callers still have frames to extract.
func FilterDown(all []KeyEvent) []KeyEvent {
	down := make([]KeyEvent, 0, len(all))
	for _, event := range all {
		if event.State == StateDown {
			down = append(down, event)
		}
	}
	if len(down) == 0 {
		return all
	}
	return down
}

// CountDown returns the number of down events in the timeline.
func CountDown(all []KeyEvent) int {
	count := 0
	for _, event := range all {
		if event.State == StateDown {
			count++
		}
	}
	return count
}
