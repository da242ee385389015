// Package exifmeta reads the textual EXIF fields of JPEG, WebP and TIFF data
// into a raw tag map.
package exifmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/text/encoding/unicode"

	"promptindex/internal/tags"
)

// ErrNoEXIF is returned when the data carries no readable EXIF block.
var ErrNoEXIF = errors.New("no exif data")

const userCommentField exif.FieldName = "UserComment"

// Decode reads EXIF from a JPEG stream, a raw "Exif\0\0" block, or a TIFF
// block. Only string-valued fields and the user comment are kept.
func Decode(r io.Reader) (*tags.Raw, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", ErrNoEXIF, err)
	}
	collected := map[string]any{}
	walkErr := x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		if tag == nil {
			return nil
		}
		if name == userCommentField {
			if text := DecodeUserComment(tag.Val); text != "" {
				collected[string(name)] = text
			}
			return nil
		}
		if tag.Format() != tiff.StringVal {
			return nil
		}
		value, err := tag.StringVal()
		if err != nil {
			return nil
		}
		if value = trimText(value); value != "" {
			collected[string(name)] = value
		}
		return nil
	}))
	if walkErr != nil {
		return nil, fmt.Errorf("walk exif: %w", walkErr)
	}
	return tags.FromMap(collected), nil
}

type walkFunc func(exif.FieldName, *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return f(name, tag)
}

var (
	prefixASCII     = []byte("ASCII\x00\x00\x00")
	prefixUnicode   = []byte("UNICODE\x00")
	prefixJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	prefixUndefined = make([]byte, 8)
)

// DecodeUserComment decodes the EXIF UserComment layout: an 8-byte charset
// code followed by the text. UNICODE text is UTF-16 with the byte order taken
// from a BOM or, failing that, guessed from where the zero bytes fall.
func DecodeUserComment(raw []byte) string {
	if len(raw) < 8 {
		return trimText(string(raw))
	}
	code, body := raw[:8], raw[8:]
	switch {
	case bytes.Equal(code, prefixUnicode):
		return trimText(decodeUTF16(body))
	case bytes.Equal(code, prefixASCII), bytes.Equal(code, prefixUndefined), bytes.Equal(code, prefixJIS):
		return trimText(string(body))
	default:
		return trimText(string(raw))
	}
}

func decodeUTF16(body []byte) string {
	endian := unicode.BigEndian
	if guessLittleEndian(body) {
		endian = unicode.LittleEndian
	}
	out, err := unicode.UTF16(endian, unicode.UseBOM).NewDecoder().Bytes(body)
	if err != nil {
		return ""
	}
	return string(out)
}

func guessLittleEndian(body []byte) bool {
	if len(body) >= 2 {
		switch {
		case body[0] == 0xFF && body[1] == 0xFE:
			return true
		case body[0] == 0xFE && body[1] == 0xFF:
			return false
		}
	}
	evenZeros, oddZeros := 0, 0
	for i := 0; i+1 < len(body); i += 2 {
		if body[i] == 0 {
			evenZeros++
		}
		if body[i+1] == 0 {
			oddZeros++
		}
	}
	return oddZeros > evenZeros
}

func trimText(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
