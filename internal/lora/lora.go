package lora

import (
	"strings"
)

// Entry describes one LoRA applied during generation.
type Entry struct {
	Name          string   `json:"name" yaml:"name"`
	StrengthModel float64  `json:"strengthModel" yaml:"strengthModel"`
	StrengthClip  *float64 `json:"strengthClip,omitempty" yaml:"strengthClip,omitempty"`
}

// DefaultStrength is used when a LoRA reference carries no usable weight.
const DefaultStrength = 1.0

var weightExtensions = []string{".safetensors", ".ckpt"}

// CleanName strips a trailing weights-file extension and any directory prefix.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	for _, ext := range weightExtensions {
		if strings.HasSuffix(lower, ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}

// Dedupe collapses entries sharing a name. The first occurrence keeps its
// position; the last occurrence supplies the strengths. Entries with an empty
// name are dropped.
func Dedupe(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	positions := make(map[string]int, len(entries))
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		if idx, ok := positions[entry.Name]; ok {
			out[idx] = entry
			continue
		}
		positions[entry.Name] = len(out)
		out = append(out, entry)
	}
	return out
}

// Float returns a pointer to v, for optional clip strengths.
func Float(v float64) *float64 {
	return &v
}
