package testsupport

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// TextChunk describes a PNG text chunk. Kind is tEXt, zTXt, or iTXt; an
// empty Kind means tEXt.
type TextChunk struct {
	Kind    string
	Keyword string
	Text    string
}

// PNG encodes a width x height image and inserts the text chunks right
// after the IHDR chunk.
func PNG(t testing.TB, width, height int, chunks ...TextChunk) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	encoded := buf.Bytes()
	// signature (8) + IHDR (4 length + 4 type + 13 data + 4 crc)
	const headerEnd = 33
	out := append([]byte(nil), encoded[:headerEnd]...)
	for _, c := range chunks {
		out = append(out, textChunk(t, c)...)
	}
	return append(out, encoded[headerEnd:]...)
}

// WritePNG writes a PNG fixture to path.
func WritePNG(t testing.TB, path string, width, height int, chunks ...TextChunk) {
	t.Helper()
	writeBytes(t, path, PNG(t, width, height, chunks...))
}

// EXIF selects the entries written into a JPEG or WebP EXIF block.
type EXIF struct {
	ImageDescription string
	UserComment      []byte
}

// JPEG encodes a width x height JPEG carrying an APP1 EXIF segment.
func JPEG(t testing.TB, width, height int, exif EXIF) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(width, height), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	encoded := buf.Bytes()
	payload := append([]byte("Exif\x00\x00"), TIFF(exif)...)

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, encoded[2:]...)
}

// WriteJPEG writes a JPEG fixture to path.
func WriteJPEG(t testing.TB, path string, width, height int, exif EXIF) {
	t.Helper()
	writeBytes(t, path, JPEG(t, width, height, exif))
}

// WebP builds an extended-format WebP container with a canvas of the given
// size and an EXIF chunk. The image bitstream is a placeholder.
func WebP(width, height int, exif EXIF) []byte {
	vp8x := make([]byte, 10)
	vp8x[0] = 1 << 3
	putUint24(vp8x[4:7], uint32(width-1))
	putUint24(vp8x[7:10], uint32(height-1))

	var body bytes.Buffer
	body.WriteString("WEBP")
	writeRIFFChunk(&body, "VP8X", vp8x)
	writeRIFFChunk(&body, "EXIF", TIFF(exif))

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

// TIFF encodes a little-endian TIFF block with IFD0 and an Exif sub-IFD.
func TIFF(exif EXIF) []byte {
	var ifd0 []ifdEntry
	if exif.ImageDescription != "" {
		ifd0 = append(ifd0, ifdEntry{tag: 0x010E, typ: 2, count: uint32(len(exif.ImageDescription) + 1), data: append([]byte(exif.ImageDescription), 0)})
	}
	ifd0 = append(ifd0, ifdEntry{tag: 0x8769, typ: 4, count: 1, data: make([]byte, 4)})

	const ifd0Offset = 8
	exifOffset := ifd0Offset + ifdSize(ifd0)
	binary.LittleEndian.PutUint32(ifd0[len(ifd0)-1].data, uint32(exifOffset))

	var sub []ifdEntry
	if exif.UserComment != nil {
		sub = append(sub, ifdEntry{tag: 0x9286, typ: 7, count: uint32(len(exif.UserComment)), data: exif.UserComment})
	}

	out := []byte("II*\x00")
	out = binary.LittleEndian.AppendUint32(out, ifd0Offset)
	out = append(out, encodeIFD(ifd0Offset, ifd0)...)
	return append(out, encodeIFD(exifOffset, sub)...)
}

// UnicodeUserComment encodes text as a UNICODE-prefixed UTF-16 user comment.
func UnicodeUserComment(text string, bigEndian bool) []byte {
	out := []byte("UNICODE\x00")
	for _, r := range text {
		if r > 0xFFFF {
			r = '?'
		}
		if bigEndian {
			out = binary.BigEndian.AppendUint16(out, uint16(r))
		} else {
			out = binary.LittleEndian.AppendUint16(out, uint16(r))
		}
	}
	return out
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ifdSize(entries []ifdEntry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += len(e.data)
		}
	}
	return size
}

func encodeIFD(offset int, entries []ifdEntry) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(len(entries)))
	dataOffset := offset + 2 + 12*len(entries) + 4
	var data []byte
	for _, e := range entries {
		out = binary.LittleEndian.AppendUint16(out, e.tag)
		out = binary.LittleEndian.AppendUint16(out, e.typ)
		out = binary.LittleEndian.AppendUint32(out, e.count)
		if len(e.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.data)
			out = append(out, inline...)
			continue
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(dataOffset+len(data)))
		data = append(data, e.data...)
	}
	out = binary.LittleEndian.AppendUint32(out, 0)
	return append(out, data...)
}

func textChunk(t testing.TB, c TextChunk) []byte {
	t.Helper()

	var data []byte
	switch c.Kind {
	case "", "tEXt":
		c.Kind = "tEXt"
		data = append(append([]byte(c.Keyword), 0), c.Text...)
	case "zTXt":
		data = append(append([]byte(c.Keyword), 0, 0), deflate(t, c.Text)...)
	case "iTXt":
		data = append(append([]byte(c.Keyword), 0, 0, 0, 0, 0), c.Text...)
	default:
		t.Fatalf("unsupported chunk kind %q", c.Kind)
	}
	out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	out = append(out, c.Kind...)
	out = append(out, data...)
	crc := crc32.ChecksumIEEE(append([]byte(c.Kind), data...))
	return binary.BigEndian.AppendUint32(out, crc)
}

func deflate(t testing.TB, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		t.Fatalf("deflate: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("deflate close: %v", err)
	}
	return buf.Bytes()
}

func writeRIFFChunk(buf *bytes.Buffer, fourCC string, data []byte) {
	buf.WriteString(fourCC)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func solid(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	return img
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
