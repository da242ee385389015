// Package coerce converts loosely typed metadata values into numbers using
// the same lenient rules for every extraction path.
package coerce

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	intPrefix   = regexp.MustCompile(`^-?\d+`)
	floatPrefix = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)`)
)

// Int converts v to an integer. Numbers are truncated toward zero. Strings
// have every character outside [0-9-] removed and the leading integer of the
// remainder is parsed. The second result is false when nothing usable remains.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float32:
		return truncate(float64(n))
	case float64:
		return truncate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '-' {
				return r
			}
			return -1
		}, n)
		match := intPrefix.FindString(cleaned)
		if match == "" {
			return 0, false
		}
		i, err := strconv.ParseInt(match, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Float converts v to a float. Strings have every character outside
// [0-9.-] removed before the leading number is parsed. Non-finite results
// report false.
func Float(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '-' || r == '.' {
				return r
			}
			return -1
		}, n)
		match := floatPrefix.FindString(cleaned)
		if match == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatFloat renders f the shortest way that round-trips ("7", "7.5").
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
