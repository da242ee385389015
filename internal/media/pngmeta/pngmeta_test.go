package pngmeta_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"promptindex/internal/media/pngmeta"
	"promptindex/internal/testsupport"
)

func TestReadAllChunkKinds(t *testing.T) {
	data := testsupport.PNG(t, 4, 3,
		testsupport.TextChunk{Keyword: "parameters", Text: "a cat\nSteps: 20"},
		testsupport.TextChunk{Kind: "zTXt", Keyword: "prompt", Text: `{"3":{"class_type":"KSampler","inputs":{}}}`},
		testsupport.TextChunk{Kind: "iTXt", Keyword: "workflow", Text: `{"nodes":[]} ünïcode`},
	)

	chunks, err := pngmeta.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	want := []string{"parameters", "prompt", "workflow"}
	for i, c := range chunks {
		if c.Keyword != want[i] {
			t.Fatalf("chunk %d keyword = %q, want %q", i, c.Keyword, want[i])
		}
	}
	if text, ok := pngmeta.Lookup(chunks, "prompt"); !ok || text != `{"3":{"class_type":"KSampler","inputs":{}}}` {
		t.Fatalf("unexpected prompt chunk %q ok=%v", text, ok)
	}
	if text, _ := pngmeta.Lookup(chunks, "workflow"); text != `{"nodes":[]} ünïcode` {
		t.Fatalf("unexpected iTXt text %q", text)
	}
	if _, ok := pngmeta.Lookup(chunks, "missing"); ok {
		t.Fatal("expected missing keyword lookup to fail")
	}
}

func TestReadLatin1Text(t *testing.T) {
	data := testsupport.PNG(t, 1, 1,
		testsupport.TextChunk{Keyword: "Comment", Text: "caf\xe9"},
	)
	chunks, err := pngmeta.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "café" {
		t.Fatalf("expected latin-1 decoding, got %+v", chunks)
	}
}

func TestReadWithoutTextChunks(t *testing.T) {
	chunks, err := pngmeta.Read(bytes.NewReader(testsupport.PNG(t, 2, 2)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %+v", chunks)
	}
}

func TestReadRejectsNonPNG(t *testing.T) {
	_, err := pngmeta.Read(bytes.NewReader([]byte("GIF89a not a png")))
	if !errors.Is(err, pngmeta.ErrNotPNG) {
		t.Fatalf("expected ErrNotPNG, got %v", err)
	}
}

func TestReadTruncatedKeepsEarlierChunks(t *testing.T) {
	data := testsupport.PNG(t, 2, 2,
		testsupport.TextChunk{Keyword: "parameters", Text: "kept"},
	)
	// Cut inside the IDAT chunk that follows the text chunk.
	truncated := data[:len(data)-20]
	chunks, err := pngmeta.Read(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected error for truncated file")
	}
	if text, ok := pngmeta.Lookup(chunks, "parameters"); !ok || text != "kept" {
		t.Fatalf("expected chunk read before truncation, got %+v", chunks)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	testsupport.WritePNG(t, path, 2, 2, testsupport.TextChunk{Keyword: "prompt", Text: "{}"})
	chunks, err := pngmeta.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Keyword != "prompt" {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
	if _, err := pngmeta.ReadFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
