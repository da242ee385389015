package services_test

import (
	"context"
	"testing"

	"promptindex/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithScanID(ctx, "scan-123")
	ctx = services.WithFilePath(ctx, "/library/a.png")

	if id, ok := services.ScanIDFromContext(ctx); !ok || id != "scan-123" {
		t.Fatalf("unexpected scan id: %v %v", id, ok)
	}
	if path, ok := services.FilePathFromContext(ctx); !ok || path != "/library/a.png" {
		t.Fatalf("unexpected file path: %v %v", path, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithScanID(ctx, "")
	ctx = services.WithFilePath(ctx, "")
	if _, ok := services.ScanIDFromContext(ctx); ok {
		t.Fatal("expected no scan id value")
	}
	if _, ok := services.FilePathFromContext(ctx); ok {
		t.Fatal("expected no file path value")
	}
}
