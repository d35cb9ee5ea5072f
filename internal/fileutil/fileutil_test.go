package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"keyreel/internal/fileutil"
)

func TestWriteAndReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	in := map[string]int{"count": 7}
	if err := fileutil.WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var out map[string]int
	if err := fileutil.ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["count"] != 7 {
		t.Fatalf("round trip = %v", out)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if fileutil.NonEmptyFile(filepath.Join(dir, "missing")) {
		t.Fatal("missing file reported non-empty")
	}
	if fileutil.NonEmptyFile(empty) {
		t.Fatal("empty file reported non-empty")
	}
	if !fileutil.NonEmptyFile(full) {
		t.Fatal("full file reported empty")
	}
}

func TestUniqueDirAppendsSuffix(t *testing.T) {
	parent := t.TempDir()

	first, err := fileutil.UniqueDir(parent, "frames")
	if err != nil {
		t.Fatalf("UniqueDir: %v", err)
	}
	if filepath.Base(first) != "frames" {
		t.Fatalf("first dir = %q", first)
	}

	// An empty existing directory is reused.
	again, err := fileutil.UniqueDir(parent, "frames")
	if err != nil {
		t.Fatalf("UniqueDir reuse: %v", err)
	}
	if again != first {
		t.Fatalf("expected reuse of empty dir, got %q", again)
	}

	// A non-empty directory forces a suffixed sibling.
	if err := os.WriteFile(filepath.Join(first, "001.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := fileutil.UniqueDir(parent, "frames")
	if err != nil {
		t.Fatalf("UniqueDir suffix: %v", err)
	}
	if filepath.Base(second) != "frames-2" {
		t.Fatalf("second dir = %q", second)
	}
}
