package sessions

import "time"

// Status represents the lifecycle of a recorded session.
type Status string

const (
	StatusRecording         Status = "recording"
	StatusAwaitingArtifacts Status = "awaiting_artifacts"
	StatusExtracting        Status = "extracting"
	StatusRecognizing       Status = "recognizing"
	StatusAnalyzed          Status = "analyzed"
	StatusFailed            Status = "failed"
	StatusTimedOut          Status = "timed_out"
)

var allStatuses = []Status{
	StatusRecording,
	StatusAwaitingArtifacts,
	StatusExtracting,
	StatusRecognizing,
	StatusAnalyzed,
	StatusFailed,
	StatusTimedOut,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle value.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether the session has finished processing.
func (s Status) Terminal() bool {
	return s == StatusAnalyzed || s == StatusFailed || s == StatusTimedOut
}

// Record is one persisted session row.
type Record struct {
	ID           int64
	SessionID    string
	OutputDir    string
	Status       Status
	ROIJSON      string
	DurationMs   int64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
