package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize returns s in Unicode NFC form.
func Normalize(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// SearchKey returns the comparison form of s: NFC normalized, case folded,
// whitespace collapsed to single spaces, and trimmed.
func SearchKey(s string) string {
	folded := folder.String(Normalize(s))
	return strings.Join(strings.FieldsFunc(folded, unicode.IsSpace), " ")
}

// Contains reports whether the search key of haystack contains the search
// key of needle. An empty needle matches everything.
func Contains(haystack, needle string) bool {
	key := SearchKey(needle)
	if key == "" {
		return true
	}
	return strings.Contains(SearchKey(haystack), key)
}
