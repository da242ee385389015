package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestReplaceNaN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":NaN}`, `{"a":null}`},
		{`[NaN, 1, NaN]`, `[null, 1, null]`},
		{`{"text":"NaN stays"}`, `{"text":"NaN stays"}`},
		{`{"t":"say \"NaN\"","v":NaN}`, `{"t":"say \"NaN\"","v":null}`},
		{`{"NaNa":1}`, `{"NaNa":1}`},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		if got := string(ReplaceNaN([]byte(tc.in))); got != tc.want {
			t.Errorf("ReplaceNaN(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestUnmarshalToleratesNaN(t *testing.T) {
	var out map[string]any
	if err := Unmarshal([]byte(`{"denoise": NaN, "steps": 20}`), &out); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if v, ok := out["denoise"]; !ok || v != nil {
		t.Fatalf("expected denoise to decode as null, got %#v", v)
	}
	if n, ok := out["steps"].(json.Number); !ok || n.String() != "20" {
		t.Fatalf("expected steps json.Number 20, got %#v", out["steps"])
	}
}

func TestUnmarshalRejectsTrailingData(t *testing.T) {
	var out map[string]any
	if err := Unmarshal([]byte(`{"a":1} {"b":2}`), &out); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestObjectFieldsPreservesOrder(t *testing.T) {
	fields, err := ObjectFields([]byte(`{"b":1,"a":{"x":NaN},"c":"z","b":2}`))
	if err != nil {
		t.Fatalf("ObjectFields returned error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	order := []string{fields[0].Key, fields[1].Key, fields[2].Key}
	if order[0] != "b" || order[1] != "a" || order[2] != "c" {
		t.Fatalf("unexpected order %v", order)
	}
	if string(fields[0].Value) != "2" {
		t.Fatalf("expected duplicate key to keep last value, got %s", fields[0].Value)
	}
	if string(fields[1].Value) != `{"x":null}` {
		t.Fatalf("expected NaN replaced in nested value, got %s", fields[1].Value)
	}
}

func TestObjectFieldsRejectsNonObject(t *testing.T) {
	if _, err := ObjectFields([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for array input")
	}
}

func TestIsArrayIndex(t *testing.T) {
	for key, want := range map[string]bool{
		"0": true, "12": true, "4294967294": true,
		"4294967295": false, "012": false, "-1": false, "a": false, "": false, "1.5": false,
	} {
		if got := IsArrayIndex(key); got != want {
			t.Errorf("IsArrayIndex(%q) = %v, want %v", key, got, want)
		}
	}
}
