package sessions_test

import (
	"context"
	"path/filepath"
	"testing"

	"keyreel/internal/sessions"
)

func openStore(t *testing.T) *sessions.Store {
	t.Helper()
	store, err := sessions.OpenPath(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndFetch(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record, err := store.Create(ctx, "abc-123", "/sessions/abc", `{"x":0,"y":0,"width":1280,"height":720}`)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if record.Status != sessions.StatusRecording {
		t.Fatalf("status = %q, want recording", record.Status)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", record)
	}

	fetched, err := store.GetBySessionID(ctx, "abc-123")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if fetched == nil || fetched.OutputDir != "/sessions/abc" || fetched.ROIJSON == "" {
		t.Fatalf("unexpected record: %+v", fetched)
	}

	missing, err := store.GetBySessionID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetBySessionID for missing row failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown session, got %+v", missing)
	}
}

func TestStatusTransitions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "abc", "/sessions/abc", ""); err != nil {
		t.Fatal(err)
	}

	steps := []sessions.Status{
		sessions.StatusAwaitingArtifacts,
		sessions.StatusExtracting,
		sessions.StatusRecognizing,
		sessions.StatusAnalyzed,
	}
	for _, status := range steps {
		if err := store.SetStatus(ctx, "abc", status); err != nil {
			t.Fatalf("SetStatus(%s) failed: %v", status, err)
		}
	}

	record, err := store.GetBySessionID(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != sessions.StatusAnalyzed || !record.Status.Terminal() {
		t.Fatalf("final status = %q", record.Status)
	}

	if err := store.SetStatus(ctx, "abc", sessions.Status("bogus")); err == nil {
		t.Fatal("unknown status should be rejected")
	}
	if err := store.SetStatus(ctx, "missing", sessions.StatusAnalyzed); err == nil {
		t.Fatal("updating a missing session should fail")
	}
}

func TestMarkFailedAndDuration(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "abc", "/sessions/abc", ""); err != nil {
		t.Fatal(err)
	}
	if err := store.SetDuration(ctx, "abc", 4321); err != nil {
		t.Fatalf("SetDuration failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "abc", sessions.StatusTimedOut, "events.json not found"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "abc", sessions.StatusAnalyzed, "nope"); err == nil {
		t.Fatal("MarkFailed must reject non-failure states")
	}

	record, err := store.GetBySessionID(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != sessions.StatusTimedOut || record.DurationMs != 4321 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.ErrorMessage != "events.json not found" {
		t.Fatalf("error message = %q", record.ErrorMessage)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"one", "two", "three"} {
		if _, err := store.Create(ctx, id, "/sessions/"+id, ""); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 || records[0].SessionID != "three" || records[1].SessionID != "two" {
		t.Fatalf("unexpected list: %+v", records)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
}
