package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q
`, filepath.Join(base, "sessions"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func stubBinaries(t *testing.T, names ...string) {
	t.Helper()

	binDir := t.TempDir()
	for _, name := range names {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir)
}

func TestRootShowsHelp(t *testing.T) {
	out, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"record", "analyze", "sessions", "deps", "config"} {
		if !strings.Contains(out, sub) {
			t.Fatalf("help output missing %q:\n%s", sub, out)
		}
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "keyreel", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output should name the target path:\n%s", out)
	}
	if info, statErr := os.Stat(target); statErr != nil || info.Size() == 0 {
		t.Fatalf("sample config not written: %v", statErr)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite failed: %v", err)
	}
}

func TestDepsCommandWithStubbedBinaries(t *testing.T) {
	stubBinaries(t, "ffmpeg", "ffprobe", "tesseract")

	out, err := runCommand(t, "deps")
	if err != nil {
		t.Fatalf("deps failed: %v", err)
	}
	for _, name := range []string{"FFmpeg", "FFprobe", "Tesseract"} {
		if !strings.Contains(out, name) {
			t.Fatalf("deps output missing %q:\n%s", name, out)
		}
	}
}

func TestDepsCommandReportsMissingRequired(t *testing.T) {
	stubBinaries(t) // empty PATH dir

	_, err := runCommand(t, "deps")
	if err == nil {
		t.Fatal("deps should fail when required binaries are missing")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionsCommandEmptyStore(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, "sessions", "--config", configPath)
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded yet.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRecordRequiresRegionFlags(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCommand(t, "record", "--config", configPath); err == nil {
		t.Fatal("record without --width/--height should fail")
	}
}
