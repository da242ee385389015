// Package extract assembles canonical generation records from the metadata
// a file exposes. Extraction is pure: callers supply already-read tags and
// chunk text, and the package never performs I/O or logs.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"promptindex/internal/coerce"
	"promptindex/internal/graph"
	"promptindex/internal/lora"
	"promptindex/internal/params"
	"promptindex/internal/payload"
	"promptindex/internal/tags"
)

// ErrNoMetadata reports that no generation payload was located. It is not
// a failure: the accompanying record carries file attributes and defaults.
var ErrNoMetadata = errors.New("no generation metadata found")

// Input is everything a metadata reader produced for one file.
type Input struct {
	Tags     *tags.Raw
	Chunk    string
	HasChunk bool
	File     FileInfo
}

// Reader produces extraction input for a file path.
type Reader interface {
	Read(ctx context.Context, path string) (Input, error)
}

// Engine couples a metadata reader with record assembly.
type Engine struct {
	reader Reader
}

// NewEngine returns an engine reading files through reader.
func NewEngine(reader Reader) *Engine {
	return &Engine{reader: reader}
}

// ExtractFile reads path and assembles its record. Reader failures are
// returned wrapped; a file without a payload returns ErrNoMetadata.
func (e *Engine) ExtractFile(ctx context.Context, path string) (Record, error) {
	in, err := e.reader.Read(ctx, path)
	if err != nil {
		return Record{}, fmt.Errorf("read metadata: %w", err)
	}
	return Extract(in)
}

// Extract locates a payload and assembles the record. The graph path is
// tried first, then the text path.
func Extract(in Input) (Record, error) {
	record := defaultRecord(in.File)
	found, ok := payload.Locate(payload.Sources{
		Chunk:    in.Chunk,
		HasChunk: in.HasChunk,
		Pairs:    tags.Flatten(in.Tags),
	})
	if !ok {
		return record, ErrNoMetadata
	}
	switch found.Kind {
	case payload.KindGraph:
		applyGraph(&record, found.Graph.Extract())
	case payload.KindText:
		applyText(&record, params.Parse(found.Raw))
	}
	record.Workflow = stringPtr(found.Raw)
	return record, nil
}

func applyGraph(r *Record, p graph.Params) {
	r.Source = SourceComfyUI
	r.Prompt = p.Prompt.String()
	r.NegativePrompt = p.NegativePrompt.String()
	r.Seed = p.Seed.String()
	r.Steps = p.Steps.String()
	r.Sampler = p.Sampler.String()
	r.Scheduler = p.Scheduler.String()
	if p.Guided {
		r.CFG = nil
		r.Guidance = stringPtr(p.Guidance.String())
	} else {
		r.CFG = stringPtr(p.CFG.String())
	}
	r.Model = stringPtr(p.Model.String())
	r.Loras = nonNil(p.Loras)
}

func applyText(r *Record, p params.Params) {
	r.Source = SourceA1111
	if p.Prompt != "" {
		r.Prompt = p.Prompt
	}
	r.NegativePrompt = p.NegativePrompt
	r.Seed = formatInt(p.Seed)
	r.Steps = formatInt(p.Steps)
	r.Sampler = orNA(p.Sampler)
	r.Scheduler = orNA(p.Scheduler)
	if p.CFG != nil {
		r.CFG = stringPtr(coerce.FormatFloat(*p.CFG))
	}
	r.Model = p.Model
	if r.Width <= 0 && r.Height <= 0 {
		r.Width, r.Height = p.Width, p.Height
	}
	r.Loras = nonNil(p.Loras)
	if len(p.Extra) > 0 || p.Version != nil {
		r.Extra = make(map[string]string, len(p.Extra)+1)
		for k, v := range p.Extra {
			r.Extra[k] = v
		}
		if p.Version != nil {
			r.Extra["Version"] = *p.Version
		}
	}
}

func formatInt(v *int64) string {
	if v == nil {
		return NA
	}
	return strconv.FormatInt(*v, 10)
}

func orNA(v *string) string {
	if v == nil || *v == "" {
		return NA
	}
	return *v
}

func nonNil(entries []lora.Entry) []lora.Entry {
	if entries == nil {
		return []lora.Entry{}
	}
	return entries
}
