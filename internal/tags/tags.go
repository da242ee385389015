// Package tags models the raw key/value metadata produced by tag readers and
// flattens it into ordered string pairs for payload location.
package tags

import (
	"sort"
)

// Wrapped is a single-value wrapper object as emitted by some tag readers
// ({value: scalar}).
type Wrapped struct {
	Value any
}

// Raw is an insertion-ordered tag map. Values are a scalar, a slice of
// scalars, or a wrapper object (Wrapped or map[string]any with a "value" key).
type Raw struct {
	keys   []string
	values map[string]any
}

// NewRaw returns an empty tag map.
func NewRaw() *Raw {
	return &Raw{values: map[string]any{}}
}

// FromMap builds a tag map from an unordered map. Keys are ordered
// lexically so repeated extraction from the same map is deterministic.
func FromMap(m map[string]any) *Raw {
	raw := NewRaw()
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw.Set(key, m[key])
	}
	return raw
}

// Set stores value under key. Re-setting a key keeps its original position.
func (r *Raw) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Raw) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r *Raw) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len reports the number of keys.
func (r *Raw) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Pair is one flattened tag entry.
type Pair struct {
	Key   string
	Value string
}

// Flatten converts a raw tag map into ordered (key, string) pairs. Nil values
// are skipped, arrays emit one pair per string element, and wrapper objects
// emit their value only when it is a string. Non-string scalars are dropped.
func Flatten(raw *Raw) []Pair {
	if raw == nil {
		return nil
	}
	pairs := make([]Pair, 0, len(raw.keys))
	for _, key := range raw.keys {
		switch v := raw.values[key].(type) {
		case nil:
		case string:
			pairs = append(pairs, Pair{Key: key, Value: v})
		case []string:
			for _, s := range v {
				pairs = append(pairs, Pair{Key: key, Value: s})
			}
		case []any:
			for _, elem := range v {
				if s, ok := elem.(string); ok {
					pairs = append(pairs, Pair{Key: key, Value: s})
				}
			}
		case Wrapped:
			if s, ok := v.Value.(string); ok {
				pairs = append(pairs, Pair{Key: key, Value: s})
			}
		case *Wrapped:
			if v != nil {
				if s, ok := v.Value.(string); ok {
					pairs = append(pairs, Pair{Key: key, Value: s})
				}
			}
		case map[string]any:
			if s, ok := v["value"].(string); ok {
				pairs = append(pairs, Pair{Key: key, Value: s})
			}
		}
	}
	return pairs
}
