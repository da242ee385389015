package extract

import (
	"time"

	"promptindex/internal/lora"
)

// NA marks a field that could not be resolved.
const NA = "N/A"

// Source identifies the generator family a record was extracted from.
type Source string

const (
	SourceComfyUI Source = "comfyui"
	SourceA1111   Source = "a1111"
	SourceUnknown Source = "unknown"
)

// FileInfo carries the file attributes supplied by the file-stat reader.
type FileInfo struct {
	Name       string
	Path       string
	Size       int64
	ModifiedAt time.Time
	Width      int64
	Height     int64
	FrameRate  float64
	Duration   float64
}

// Record is the canonical parameter record for one file. Exactly one of
// CFG and Guidance is set. Model is nil when no payload named a model.
type Record struct {
	Source         Source            `json:"source" yaml:"source"`
	Name           string            `json:"name" yaml:"name"`
	Path           string            `json:"path" yaml:"path"`
	Size           int64             `json:"size" yaml:"size"`
	ModifiedAt     time.Time         `json:"modifiedAt" yaml:"modifiedAt"`
	Width          int64             `json:"width" yaml:"width"`
	Height         int64             `json:"height" yaml:"height"`
	FrameRate      float64           `json:"frameRate,omitempty" yaml:"frameRate,omitempty"`
	Duration       float64           `json:"duration,omitempty" yaml:"duration,omitempty"`
	Prompt         string            `json:"prompt" yaml:"prompt"`
	NegativePrompt string            `json:"negativePrompt" yaml:"negativePrompt"`
	Seed           string            `json:"seed" yaml:"seed"`
	Steps          string            `json:"steps" yaml:"steps"`
	Sampler        string            `json:"sampler" yaml:"sampler"`
	Scheduler      string            `json:"scheduler" yaml:"scheduler"`
	CFG            *string           `json:"cfg,omitempty" yaml:"cfg,omitempty"`
	Guidance       *string           `json:"guidance,omitempty" yaml:"guidance,omitempty"`
	Model          *string           `json:"model" yaml:"model"`
	Loras          []lora.Entry      `json:"loras" yaml:"loras"`
	Extra          map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
	Workflow       *string           `json:"workflow" yaml:"workflow"`
}

// HasMetadata reports whether a payload was located for the record.
func (r Record) HasMetadata() bool {
	return r.Workflow != nil
}

// CFGOrGuidance returns the label and value of whichever scale field is set.
func (r Record) CFGOrGuidance() (string, string) {
	if r.Guidance != nil {
		return "guidance", *r.Guidance
	}
	if r.CFG != nil {
		return "cfg", *r.CFG
	}
	return "cfg", NA
}

func defaultRecord(file FileInfo) Record {
	return Record{
		Source:     SourceUnknown,
		Name:       file.Name,
		Path:       file.Path,
		Size:       file.Size,
		ModifiedAt: file.ModifiedAt,
		Width:      file.Width,
		Height:     file.Height,
		FrameRate:  file.FrameRate,
		Duration:   file.Duration,
		Prompt:     NA,
		Seed:       NA,
		Steps:      NA,
		Sampler:    NA,
		Scheduler:  NA,
		CFG:        stringPtr(NA),
		Loras:      []lora.Entry{},
	}
}

func stringPtr(s string) *string {
	return &s
}
