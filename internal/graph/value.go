package graph

import (
	"math"
	"strconv"
	"strings"

	"promptindex/internal/coerce"
)

// NA is the sentinel rendered for any field that could not be resolved.
const NA = "N/A"

// Status describes the outcome of a resolution step.
type Status uint8

const (
	// NotApplicable means no candidate input existed at all.
	NotApplicable Status = iota
	// Unresolved means an input existed but did not lead to a scalar.
	Unresolved
	// Resolved means Text holds a terminal scalar.
	Resolved
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "not_applicable"
	}
}

// Value is the result of resolving an input to a terminal scalar.
type Value struct {
	Status Status
	Kind   InputKind
	Text   string
}

// OK reports whether the value resolved.
func (v Value) OK() bool {
	return v.Status == Resolved
}

// String renders the resolved scalar, or NA.
func (v Value) String() string {
	if v.Status != Resolved {
		return NA
	}
	return v.Text
}

// Float interprets the resolved scalar as a number.
func (v Value) Float() (float64, bool) {
	if v.Status != Resolved {
		return 0, false
	}
	switch v.Kind {
	case InputBool:
		return 0, false
	case InputNumber:
		return parseNumber(v.Text)
	}
	return coerce.Float(v.Text)
}

func unresolved() Value {
	return Value{Status: Unresolved}
}

// scalar converts a literal input into a resolved value. References, inline
// lists, and objects are not scalars.
func scalar(in Input) Value {
	switch in.Kind {
	case InputMissing, InputNull:
		return Value{Status: NotApplicable}
	case InputString:
		return Value{Status: Resolved, Kind: InputString, Text: in.Text}
	case InputNumber:
		return Value{Status: Resolved, Kind: InputNumber, Text: canonicalNumber(in.Text)}
	case InputBool:
		return Value{Status: Resolved, Kind: InputBool, Text: strconv.FormatBool(in.Bool)}
	default:
		return unresolved()
	}
}

// canonicalNumber keeps integer literals verbatim so large seeds survive,
// and renders every other number in its shortest form.
func canonicalNumber(literal string) string {
	if literal != "" && !strings.ContainsAny(literal, ".eE") {
		return literal
	}
	f, ok := parseNumber(literal)
	if !ok {
		return literal
	}
	return coerce.FormatFloat(f)
}

// parseNumber reads a JSON number literal, exponent included.
func parseNumber(literal string) (float64, bool) {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
