package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is NFC normalized and trimmed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(Normalize(name)))
}

// WorkflowFileName derives the default export name for the workflow stored
// with mediaName: "render.png" becomes "render.workflow.json".
func WorkflowFileName(mediaName string) string {
	base := filepath.Base(strings.TrimSpace(mediaName))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(SanitizeFileName(stem), ".")
	if stem == "" {
		return "workflow.json"
	}
	return stem + ".workflow.json"
}
