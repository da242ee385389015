package services_test

import (
	"errors"
	"strings"
	"testing"

	"promptindex/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "inspect failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"probe", "ffprobe", "inspect failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestHint(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "", nil), "ffprobe"},
		{services.Wrap(services.ErrUnsupported, "probe", "read", ".bmp", nil), "scan.extensions"},
		{services.Wrap(services.ErrNotFound, "index", "get", "", nil), "prune"},
		{errors.New("permission denied"), "permissions"},
	}
	for _, tc := range cases {
		if got := services.Hint(tc.err); !strings.Contains(got, tc.want) {
			t.Errorf("Hint(%v) = %q, want substring %q", tc.err, got, tc.want)
		}
	}
}
