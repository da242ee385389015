package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAtomicCreatesParents(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "out.json")

	if err := WriteAtomic(dst, strings.NewReader(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteAtomicReplaces(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(dst, []byte("old contents that are longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteAtomic(dst, strings.NewReader("new")); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteNewRefusesExisting(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(dst, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteNew(dst, []byte("replace"), false)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "keep" {
		t.Fatalf("file was modified: %q", got)
	}

	if err := WriteNew(dst, []byte("replace"), true); err != nil {
		t.Fatal(err)
	}
	got, _ = os.ReadFile(dst)
	if string(got) != "replace" {
		t.Fatalf("content mismatch: got %q", got)
	}
}
