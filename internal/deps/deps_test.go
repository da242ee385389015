package deps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary", Optional: true},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available || results[0].Command != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || !results[1].Optional {
		t.Fatalf("expected missing binary to be unavailable, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status %#v", results[2])
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffprobe", "exit 0\n")
	t.Setenv("PATH", binDir)

	results := CheckBinaries([]Requirement{{Name: "FFprobe", Command: "ffprobe"}})
	if !results[0].Available || results[0].Command != stub {
		t.Fatalf("expected PATH resolution to %s, got %#v", stub, results[0])
	}
}

func TestVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffprobe", "echo 'ffprobe version 7.1 Copyright (c) the FFmpeg developers'\necho 'built with gcc'\n")

	got, err := Version(context.Background(), stub)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got != "ffprobe version 7.1 Copyright (c) the FFmpeg developers" {
		t.Fatalf("unexpected version line %q", got)
	}

	failing := writeStub(t, binDir, "broken", "exit 3\n")
	if _, err := Version(context.Background(), failing); err == nil {
		t.Fatal("expected error from failing binary")
	}
}
