package fileutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON marshals payload with indentation and writes it atomically by
// renaming a temp file into place.
func WriteJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// ReadJSON unmarshals the JSON file at path into out.
func ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// NonEmptyFile reports whether path exists as a regular file with size > 0.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// UniqueDir creates a directory named base under parent, appending a numeric
// suffix when the preferred name already exists and is non-empty. An existing
// empty directory is reused. Returns the created directory path.
func UniqueDir(parent, base string) (string, error) {
	for attempt := 1; attempt <= 1000; attempt++ {
		name := base
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d", base, attempt)
		}
		candidate := filepath.Join(parent, name)

		entries, err := os.ReadDir(candidate)
		switch {
		case os.IsNotExist(err):
			if err := os.MkdirAll(candidate, 0o755); err != nil {
				return "", fmt.Errorf("create directory %q: %w", candidate, err)
			}
			return candidate, nil
		case err != nil:
			return "", fmt.Errorf("inspect directory %q: %w", candidate, err)
		case len(entries) == 0:
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no unique directory name available under %q for %q", parent, base)
}
