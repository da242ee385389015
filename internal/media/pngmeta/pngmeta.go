// Package pngmeta reads the textual chunks (tEXt, zTXt, iTXt) of a PNG file.
package pngmeta

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrNotPNG is returned when the stream does not start with the PNG signature.
var ErrNotPNG = errors.New("not a PNG file")

const (
	// maxChunkSize caps a single text chunk and its inflated text.
	maxChunkSize = 64 << 20
	signature    = "\x89PNG\r\n\x1a\n"
)

// Chunk is one decoded text chunk.
type Chunk struct {
	Keyword string
	Text    string
}

// ReadFile opens path and reads its text chunks.
func ReadFile(path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read returns every text chunk in file order. Undecodable text chunks are
// skipped; structural errors (truncation, bad signature) are returned.
func Read(r io.Reader) ([]Chunk, error) {
	br := bufio.NewReader(r)
	sig := make([]byte, len(signature))
	if _, err := io.ReadFull(br, sig); err != nil || string(sig) != signature {
		return nil, ErrNotPNG
	}

	var chunks []Chunk
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if errors.Is(err, io.EOF) {
				return chunks, nil
			}
			return chunks, fmt.Errorf("read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:8])

		switch kind {
		case "tEXt", "zTXt", "iTXt":
			if length > maxChunkSize {
				return chunks, fmt.Errorf("%s chunk too large: %d bytes", kind, length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return chunks, fmt.Errorf("read %s chunk: %w", kind, err)
			}
			if chunk, ok := decode(kind, data); ok {
				chunks = append(chunks, chunk)
			}
		default:
			if _, err := br.Discard(int(length)); err != nil {
				return chunks, fmt.Errorf("skip %s chunk: %w", kind, err)
			}
		}
		if _, err := br.Discard(4); err != nil {
			return chunks, fmt.Errorf("read %s crc: %w", kind, err)
		}
		if kind == "IEND" {
			return chunks, nil
		}
	}
}

// Lookup returns the text of the first chunk named keyword.
func Lookup(chunks []Chunk, keyword string) (string, bool) {
	for _, c := range chunks {
		if c.Keyword == keyword {
			return c.Text, true
		}
	}
	return "", false
}

func decode(kind string, data []byte) (Chunk, bool) {
	keyword, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || len(keyword) == 0 {
		return Chunk{}, false
	}
	name := latin1(keyword)
	switch kind {
	case "tEXt":
		return Chunk{Keyword: name, Text: latin1(rest)}, true
	case "zTXt":
		if len(rest) < 1 || rest[0] != 0 {
			return Chunk{}, false
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return Chunk{}, false
		}
		return Chunk{Keyword: name, Text: latin1(text)}, true
	case "iTXt":
		if len(rest) < 2 {
			return Chunk{}, false
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		// language tag and translated keyword
		for i := 0; i < 2; i++ {
			var found bool
			_, rest, found = bytes.Cut(rest, []byte{0})
			if !found {
				return Chunk{}, false
			}
		}
		text := rest
		if compressed {
			inflated, err := inflate(rest)
			if err != nil {
				return Chunk{}, false
			}
			text = inflated
		}
		if !utf8.Valid(text) {
			return Chunk{}, false
		}
		return Chunk{Keyword: name, Text: string(text)}, true
	}
	return Chunk{}, false
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxChunkSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxChunkSize {
		return nil, errors.New("inflated text too large")
	}
	return out, nil
}

// latin1 decodes tEXt data. Writers commonly store UTF-8 despite the
// format's Latin-1 rule, so valid UTF-8 is kept as is.
func latin1(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
