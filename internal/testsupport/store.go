package testsupport

import (
	"context"
	"testing"

	"keyreel/internal/config"
	"keyreel/internal/sessions"
)

// MustOpenStore opens a sessions.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sessions.Store {
	t.Helper()

	store, err := sessions.Open(cfg)
	if err != nil {
		t.Fatalf("sessions.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession inserts a session row for tests using the provided store.
func NewSession(t testing.TB, store *sessions.Store, sessionID, outputDir string) *sessions.Record {
	t.Helper()

	record, err := store.Create(context.Background(), sessionID, outputDir, "")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return record
}
