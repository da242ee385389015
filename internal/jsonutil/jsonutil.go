// Package jsonutil decodes the JSON payloads embedded by image generators,
// which may contain the non-standard bare literal NaN.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReplaceNaN rewrites every bare NaN literal outside of string values to null.
// Text inside JSON strings is left untouched.
func ReplaceNaN(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) {
		return data
	}
	out := make([]byte, 0, len(data)+8)
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == 'N' && bytes.HasPrefix(data[i:], []byte("NaN")) &&
			!isWordByte(byteAt(data, i-1)) && !isWordByte(byteAt(data, i+3)) {
			out = append(out, "null"...)
			i += 2
			continue
		}
		out = append(out, c)
	}
	return out
}

// Unmarshal decodes data into v after NaN substitution. Numbers decode as
// json.Number when v is an interface or map target.
func Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(ReplaceNaN(data)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("jsonutil: trailing data after JSON value")
	}
	return nil
}

// Field is one member of a JSON object in document order.
type Field struct {
	Key   string
	Value json.RawMessage
}

// ObjectFields decodes a JSON object and returns its members in document
// order, after NaN substitution. Duplicate keys keep their last value at the
// position of their first appearance.
func ObjectFields(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(ReplaceNaN(data)))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("jsonutil: expected object, got %v", tok)
	}
	var fields []Field
	seen := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonutil: unexpected object key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if idx, dup := seen[key]; dup {
			fields[idx].Value = raw
			continue
		}
		seen[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("jsonutil: trailing data after JSON object")
	}
	return fields, nil
}

// IsArrayIndex reports whether key is a canonical array index
// ("0", "17", but not "017" or "-1"), which JavaScript engines enumerate
// before all other object keys.
func IsArrayIndex(key string) bool {
	if key == "" || len(key) > 10 {
		return false
	}
	if len(key) > 1 && key[0] == '0' {
		return false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return false
	}
	return n < 1<<32-1
}

func byteAt(data []byte, i int) byte {
	if i < 0 || i >= len(data) {
		return 0
	}
	return data[i]
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '.' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
