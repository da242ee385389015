// Package probe is the per-file metadata reader. It stats a file, measures
// its pixel size, and dispatches on the extension to the PNG chunk reader,
// the EXIF reader, or ffprobe to produce extraction input.
package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/webp"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/media/exifmeta"
	"promptindex/internal/media/ffprobe"
	"promptindex/internal/media/pngmeta"
	"promptindex/internal/services"
	"promptindex/internal/tags"
)

// GraphChunk is the PNG text chunk holding a serialized node graph.
const GraphChunk = "prompt"

// Kind groups extensions by the reader that handles them.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindPNG
	KindJPEG
	KindWebP
	KindVideo
)

var kinds = map[string]Kind{
	".png":  KindPNG,
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".webp": KindWebP,
	".mp4":  KindVideo,
	".webm": KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".m4v":  KindVideo,
}

// KindOf classifies path by its extension.
func KindOf(path string) Kind {
	return kinds[strings.ToLower(filepath.Ext(path))]
}

// Options configures the prober.
type Options struct {
	FFProbeBinary  string
	FFProbeTimeout time.Duration
	FFProbeEnabled bool
}

// OptionsFromConfig derives prober options from the ffprobe config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FFProbeBinary:  cfg.FFprobe.Binary,
		FFProbeTimeout: cfg.FFprobeTimeout(),
		FFProbeEnabled: cfg.FFprobe.Enabled,
	}
}

// Prober reads extraction input from files on disk. It is safe for
// concurrent use.
type Prober struct {
	opts    Options
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// New returns a prober using opts.
func New(opts Options) *Prober {
	return &Prober{opts: opts, inspect: ffprobe.Inspect}
}

// Read implements extract.Reader.
func (p *Prober) Read(ctx context.Context, path string) (extract.Input, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return extract.Input{}, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return extract.Input{}, services.Wrap(services.ErrNotFound, "probe", "", "", err)
		}
		return extract.Input{}, fmt.Errorf("probe: %w", err)
	}
	if info.IsDir() {
		return extract.Input{}, services.Wrap(services.ErrUnsupported, "probe", "stat", "is a directory", nil)
	}
	in := extract.Input{
		Tags: tags.NewRaw(),
		File: extract.FileInfo{
			Name:       filepath.Base(abs),
			Path:       abs,
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		},
	}

	switch KindOf(abs) {
	case KindPNG:
		err = p.readPNG(abs, &in)
	case KindJPEG:
		err = p.readJPEG(abs, &in)
	case KindWebP:
		err = p.readWebP(abs, &in)
	case KindVideo:
		err = p.readVideo(ctx, abs, &in)
	default:
		err = services.Wrap(services.ErrUnsupported, "probe", "read", filepath.Ext(abs), nil)
	}
	if err != nil {
		return extract.Input{}, err
	}
	return in, nil
}

func (p *Prober) readPNG(path string, in *extract.Input) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read png: %w", err)
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		in.File.Width, in.File.Height = int64(cfg.Width), int64(cfg.Height)
	}
	chunks, err := pngmeta.Read(bytes.NewReader(data))
	if err != nil && len(chunks) == 0 {
		return services.Wrap(services.ErrValidation, "probe", "png chunks", "", err)
	}
	for _, c := range chunks {
		appendTag(in.Tags, c.Keyword, c.Text)
	}
	in.Chunk, in.HasChunk = pngmeta.Lookup(chunks, GraphChunk)
	return nil
}

func (p *Prober) readJPEG(path string, in *extract.Input) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read jpeg: %w", err)
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		in.File.Width, in.File.Height = int64(cfg.Width), int64(cfg.Height)
	}
	return mergeEXIF(in.Tags, bytes.NewReader(data))
}

func (p *Prober) readWebP(path string, in *extract.Input) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read webp: %w", err)
	}
	chunks, err := riffChunks(data)
	if err != nil {
		return services.Wrap(services.ErrValidation, "probe", "webp container", "", err)
	}
	if cfg, err := webp.DecodeConfig(bytes.NewReader(data)); err == nil {
		in.File.Width, in.File.Height = int64(cfg.Width), int64(cfg.Height)
	} else if canvas, ok := chunks["VP8X"]; ok && len(canvas) >= 10 {
		in.File.Width = int64(uint24(canvas[4:7])) + 1
		in.File.Height = int64(uint24(canvas[7:10])) + 1
	}
	if block, ok := chunks["EXIF"]; ok {
		return mergeEXIF(in.Tags, bytes.NewReader(block))
	}
	return nil
}

func (p *Prober) readVideo(ctx context.Context, path string, in *extract.Input) error {
	if !p.opts.FFProbeEnabled {
		return nil
	}
	if p.opts.FFProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.FFProbeTimeout)
		defer cancel()
	}
	result, err := p.inspect(ctx, p.opts.FFProbeBinary, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "probe", "ffprobe", filepath.Base(path), err)
	}
	for _, tag := range result.Tags() {
		appendTag(in.Tags, tag.Key, tag.Value)
	}
	w, h := result.Dimensions()
	in.File.Width, in.File.Height = int64(w), int64(h)
	in.File.FrameRate = result.FrameRate()
	in.File.Duration = result.DurationSeconds()
	return nil
}

func mergeEXIF(dst *tags.Raw, r io.Reader) error {
	raw, err := exifmeta.Decode(r)
	if err != nil {
		if errors.Is(err, exifmeta.ErrNoEXIF) {
			return nil
		}
		return services.Wrap(services.ErrValidation, "probe", "exif", "", err)
	}
	for _, key := range raw.Keys() {
		value, _ := raw.Get(key)
		dst.Set(key, value)
	}
	return nil
}

// appendTag stores value under key, turning repeated keys into a list.
func appendTag(dst *tags.Raw, key, value string) {
	existing, ok := dst.Get(key)
	if !ok {
		dst.Set(key, value)
		return
	}
	switch v := existing.(type) {
	case string:
		dst.Set(key, []string{v, value})
	case []string:
		dst.Set(key, append(v, value))
	}
}

// riffChunks indexes the top-level chunks of a RIFF/WEBP container by
// FourCC. The first occurrence of each FourCC wins.
func riffChunks(data []byte) (map[string][]byte, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, errors.New("not a RIFF/WEBP container")
	}
	chunks := map[string][]byte{}
	for offset := 12; offset+8 <= len(data); {
		fourCC := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		start := offset + 8
		if size < 0 || start+size > len(data) {
			return chunks, fmt.Errorf("chunk %q overruns container", fourCC)
		}
		if _, seen := chunks[fourCC]; !seen {
			chunks[fourCC] = data[start : start+size]
		}
		offset = start + size + size%2
	}
	return chunks, nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
