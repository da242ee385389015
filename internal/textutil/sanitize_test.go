package textutil_test

import (
	"testing"

	"promptindex/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"render: v2/final?", "render- v2-final"},
		{"  spaced  ", "spaced"},
		{"", ""},
		{`a<b>c|d"e`, "abcde"},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWorkflowFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/library/ComfyUI_00012_.png", "ComfyUI_00012_.workflow.json"},
		{"clip.final.mp4", "clip.final.workflow.json"},
		{".png", "workflow.json"},
		{"", "workflow.json"},
		{"what?.webp", "what.workflow.json"},
	}
	for _, tc := range cases {
		if got := textutil.WorkflowFileName(tc.in); got != tc.want {
			t.Errorf("WorkflowFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
