package preflight_test

import (
	"path/filepath"
	"testing"

	"keyreel/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckDirectoryAccess("Session directory", dir); !result.Passed {
		t.Fatalf("expected pass for temp dir: %+v", result)
	}
	missing := filepath.Join(dir, "missing")
	if result := preflight.CheckDirectoryAccess("Session directory", missing); result.Passed {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}
}

func TestCheckFreeDisk(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckFreeDisk(dir, 1); !result.Passed {
		t.Fatalf("expected at least 1 MiB free: %+v", result)
	}
	// An absurd floor must fail.
	if result := preflight.CheckFreeDisk(dir, 1<<40); result.Passed {
		t.Fatalf("expected failure for impossible floor: %+v", result)
	}
}

func TestFailedFilters(t *testing.T) {
	results := []preflight.Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false},
	}
	failed := preflight.Failed(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("Failed = %+v", failed)
	}
}
