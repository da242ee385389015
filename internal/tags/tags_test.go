package tags_test

import (
	"reflect"
	"testing"

	"promptindex/internal/tags"
)

func TestFlatten(t *testing.T) {
	raw := tags.NewRaw()
	raw.Set("Prompt", "a cat")
	raw.Set("Missing", nil)
	raw.Set("Keywords", []any{"one", 2, "three"})
	raw.Set("Authors", []string{"x", "y"})
	raw.Set("Comment", map[string]any{"value": "wrapped"})
	raw.Set("Rating", map[string]any{"value": 5})
	raw.Set("Software", tags.Wrapped{Value: "tool"})
	raw.Set("Width", 512)

	got := tags.Flatten(raw)
	want := []tags.Pair{
		{Key: "Prompt", Value: "a cat"},
		{Key: "Keywords", Value: "one"},
		{Key: "Keywords", Value: "three"},
		{Key: "Authors", Value: "x"},
		{Key: "Authors", Value: "y"},
		{Key: "Comment", Value: "wrapped"},
		{Key: "Software", Value: "tool"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestRawKeepsInsertionOrder(t *testing.T) {
	raw := tags.NewRaw()
	raw.Set("b", "1")
	raw.Set("a", "2")
	raw.Set("b", "3")
	if keys := raw.Keys(); !reflect.DeepEqual(keys, []string{"b", "a"}) {
		t.Fatalf("unexpected key order %v", keys)
	}
	if v, _ := raw.Get("b"); v != "3" {
		t.Fatalf("expected overwritten value, got %v", v)
	}
}

func TestFromMapIsDeterministic(t *testing.T) {
	m := map[string]any{"z": "1", "a": "2", "m": "3"}
	first := tags.Flatten(tags.FromMap(m))
	second := tags.Flatten(tags.FromMap(m))
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical flattening for the same map")
	}
	if first[0].Key != "a" {
		t.Fatalf("expected lexical ordering, got %v", first)
	}
}

func TestFlattenNil(t *testing.T) {
	if pairs := tags.Flatten(nil); pairs != nil {
		t.Fatalf("expected nil pairs, got %v", pairs)
	}
}
