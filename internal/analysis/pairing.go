package analysis

import (
	"sort"

	"keyreel/internal/events"
	"keyreel/internal/ocr"
)

// Pairing warnings attached to incomplete pairs.
const (
	WarnStrayUp       = "stray_up_without_down"
	WarnUnmatchedDown = "down_without_up"
)

// Pair is one reconciled key press. Down, up, and duration are nullable:
// a stray up has no down timestamp, an unmatched down has no up timestamp
// and no duration.
type Pair struct {
	Key             string  `json:"key"`
	DownTimestampMs *int64  `json:"downTimestampMs"`
	UpTimestampMs   *int64  `json:"upTimestampMs"`
	DurationMs      *int64  `json:"durationMs"`
	OCRText         string  `json:"ocrText"`
	OCRConfidence   float64 `json:"ocrConfidence"`
	OCRFrameFile    string  `json:"ocrFrameFile"`
	OCRFrameIndex   int     `json:"ocrFrameIndex"`
	Warning         string  `json:"warning,omitempty"`
}

// entry is an open press awaiting its up event.
type entry struct {
	key    string
	downTs int64
	text   string
	conf   float64
	file   string
	frame  int
}

// Pairs reconciles a chronological event timeline with recognition results
// aligned by global down-event order: the Nth down event in the timeline
// corresponds to the Nth result. Matching is LIFO per key, so a key
// re-pressed before its previous release is processed still pairs each up
// with the most recent down. Output is sorted by down timestamp, falling
// back to the up timestamp for stray ups.
func Pairs(timeline []events.KeyEvent, results []ocr.Result) []Pair {
	ordered := make([]ocr.Result, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	stacks := make(map[string][]entry)
	stackOrder := make([]string, 0)
	pairs := make([]Pair, 0, len(timeline)/2)
	cursor := 0

	for _, event := range timeline {
		switch event.State {
		case events.StateDown:
			open := entry{key: event.Key, downTs: event.TimestampMs}
			if cursor < len(ordered) {
				result := ordered[cursor]
				open.text = result.Text
				open.conf = result.Confidence
				open.file = result.File
				open.frame = result.Index
			}
			cursor++
			if _, seen := stacks[event.Key]; !seen {
				stackOrder = append(stackOrder, event.Key)
			}
			stacks[event.Key] = append(stacks[event.Key], open)

		case events.StateUp:
			stack := stacks[event.Key]
			if len(stack) == 0 {
				up := event.TimestampMs
				pairs = append(pairs, Pair{
					Key:           event.Key,
					UpTimestampMs: &up,
					Warning:       WarnStrayUp,
				})
				continue
			}
			open := stack[len(stack)-1]
			stacks[event.Key] = stack[:len(stack)-1]

			up := event.TimestampMs
			down := open.downTs
			duration := up - down
			if duration < 0 {
				duration = 0
			}
			pairs = append(pairs, completedPair(open, &down, &up, &duration, ""))
		}
	}

	// Presses never released are flushed as open-ended pairs.
	for _, key := range stackOrder {
		for _, open := range stacks[key] {
			down := open.downTs
			pairs = append(pairs, completedPair(open, &down, nil, nil, WarnUnmatchedDown))
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return sortTimestamp(pairs[i]) < sortTimestamp(pairs[j])
	})
	return pairs
}

func completedPair(open entry, down, up, duration *int64, warning string) Pair {
	return Pair{
		Key:             open.key,
		DownTimestampMs: down,
		UpTimestampMs:   up,
		DurationMs:      duration,
		OCRText:         open.text,
		OCRConfidence:   open.conf,
		OCRFrameFile:    open.file,
		OCRFrameIndex:   open.frame,
		Warning:         warning,
	}
}

func sortTimestamp(p Pair) int64 {
	if p.DownTimestampMs != nil {
		return *p.DownTimestampMs
	}
	if p.UpTimestampMs != nil {
		return *p.UpTimestampMs
	}
	return 0
}
