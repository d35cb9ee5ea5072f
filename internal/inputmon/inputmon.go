// Package inputmon watches for keyboard hotplug while a recording session is
// active. A keyboard detaching mid-session explains gaps in the event log, so
// attach/detach events are surfaced to the session log as diagnostics.
// Monitoring is only available on linux; other platforms get a no-op monitor.
package inputmon

// Event describes one input-device change.
type Event struct {
	// Action is "add" or "remove".
	Action string
	// Device is the kernel device path.
	Device string
}

// Handler receives input-device changes. Called from the monitor goroutine.
type Handler func(Event)
