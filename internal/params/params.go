// Package params parses the delimited "key: value" parameter text written by
// single-shot generators into generation parameters.
package params

import (
	"regexp"
	"strconv"
	"strings"

	"promptindex/internal/coerce"
	"promptindex/internal/lora"
)

var (
	parameterLine  = regexp.MustCompile(`(?i)^\s*(?:Steps|Sampler|CFG scale|Seed|Size|Model|Schedule type|Version|Lora hashes|LoRAs?)\s*:`)
	negativePrefix = regexp.MustCompile(`(?i)^\s*Negative prompt\s*:`)
	keyValue       = regexp.MustCompile(`\s*([A-Za-z0-9_][A-Za-z0-9_ ./()\-]*?)\s*:\s*("(?:[^"\\]|\\.)*"|[^,]*)\s*(?:,|$)`)
	inlineLora     = regexp.MustCompile(`(?i)<lora:([^:>]+)(?::([^:>]+))?(?::[^>]*)?>`)
	scaffolding    = regexp.MustCompile(`(?i)[\s,]*\b(?:ADDBASE|ADDCOL|ADDROW)\b[\s,]*`)
	spaceComma     = regexp.MustCompile(`[ \t]+,`)
	repeatedComma  = regexp.MustCompile(`,(?:[ \t]*,)+`)
	repeatedSpace  = regexp.MustCompile(`[ \t]{2,}`)
	weightSuffix   = regexp.MustCompile(`^(.+?)\s*\(\s*([^()]*?)\s*\)$`)
)

// extraKeys are recognized for display but do not map to a canonical field.
var extraKeys = map[string]string{
	"hires upscale":      "Hires upscale",
	"hires upscaler":     "Hires upscaler",
	"hires steps":        "Hires steps",
	"denoising strength": "Denoising strength",
	"clip skip":          "Clip skip",
	"model hash":         "Model hash",
	"vae":                "VAE",
	"vae hash":           "VAE hash",
	"lora hashes":        "Lora hashes",
}

// Params holds the fields recovered from a parameter text block. Pointer
// fields are nil when the key was absent or its value did not coerce.
type Params struct {
	Prompt         string
	NegativePrompt string
	Steps          *int64
	Sampler        *string
	CFG            *float64
	Seed           *int64
	Model          *string
	Scheduler      *string
	Version        *string
	Width          int64
	Height         int64
	Loras          []lora.Entry
	Extra          map[string]string
}

// LooksLikeParameters reports whether text contains a parameter line or a
// negative prompt marker.
func LooksLikeParameters(text string) bool {
	for _, line := range splitLines(text) {
		if parameterLine.MatchString(line) || negativePrefix.MatchString(line) {
			return true
		}
	}
	return false
}

// IsParameterLine reports whether line starts with a recognized parameter key.
func IsParameterLine(line string) bool {
	return parameterLine.MatchString(line)
}

type section uint8

const (
	sectionPositive section = iota
	sectionNegative
	sectionParameters
)

// Parse tokenizes a parameter text block. It never fails: unknown keys are
// ignored and uncoercible values leave their field unset.
func Parse(text string) Params {
	var (
		p          Params
		positive   []string
		negative   []string
		paramLoras []lora.Entry
	)
	current := sectionPositive
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		switch {
		case parameterLine.MatchString(trimmed):
			current = sectionParameters
			paramLoras = append(paramLoras, p.applyLine(trimmed)...)
		case current != sectionParameters && negativePrefix.MatchString(trimmed):
			current = sectionNegative
			rest := strings.TrimSpace(negativePrefix.ReplaceAllString(trimmed, ""))
			if rest != "" {
				negative = append(negative, rest)
			}
		case current == sectionPositive:
			positive = append(positive, line)
		case current == sectionNegative:
			if trimmed != "" {
				negative = append(negative, trimmed)
			}
		default:
			if trimmed != "" {
				paramLoras = append(paramLoras, p.applyLine(trimmed)...)
			}
		}
	}

	prompt, inline := CleanPrompt(strings.Join(positive, "\n"))
	p.Prompt = prompt
	p.NegativePrompt = strings.Join(negative, " ")
	p.Loras = lora.Dedupe(append(inline, paramLoras...))
	return p
}

// CleanPrompt removes inline LoRA tags and region scaffolding tokens from a
// prompt and returns the cleaned text with the LoRAs found, in order.
func CleanPrompt(prompt string) (string, []lora.Entry) {
	var found []lora.Entry
	for _, m := range inlineLora.FindAllStringSubmatch(prompt, -1) {
		name := lora.CleanName(m[1])
		if name == "" {
			continue
		}
		entry := lora.Entry{Name: name, StrengthModel: lora.DefaultStrength}
		if f, ok := coerce.Float(m[2]); ok {
			entry.StrengthModel = f
		}
		found = append(found, entry)
	}
	prompt = inlineLora.ReplaceAllString(prompt, "")
	prompt = scaffolding.ReplaceAllString(prompt, ", ")
	prompt = spaceComma.ReplaceAllString(prompt, ",")
	prompt = repeatedComma.ReplaceAllString(prompt, ",")
	prompt = repeatedSpace.ReplaceAllString(prompt, " ")
	return strings.Trim(prompt, ", ;\t\n\r"), found
}

// ParseLoraList reads the value of a loras parameter: comma separated
// entries of "name (weight)", "name:weight", or a bare name.
func ParseLoraList(value string) []lora.Entry {
	var out []lora.Entry
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, weight := part, ""
		if m := weightSuffix.FindStringSubmatch(part); m != nil {
			name, weight = m[1], m[2]
		} else if idx := strings.LastIndex(part, ":"); idx > 0 {
			if isNumber(part[idx+1:]) {
				name, weight = part[:idx], part[idx+1:]
			}
		}
		name = lora.CleanName(name)
		if name == "" {
			continue
		}
		entry := lora.Entry{Name: name, StrengthModel: lora.DefaultStrength}
		if f, ok := coerce.Float(weight); ok {
			entry.StrengthModel = f
		}
		out = append(out, entry)
	}
	return out
}

func (p *Params) applyLine(line string) []lora.Entry {
	var loras []lora.Entry
	for _, m := range keyValue.FindAllStringSubmatch(line, -1) {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		value := unquote(strings.TrimSpace(m[2]))
		switch key {
		case "steps":
			if n, ok := coerce.Int(value); ok {
				p.Steps = &n
			}
		case "sampler":
			p.Sampler = stringPtr(value)
		case "cfg scale":
			if f, ok := coerce.Float(value); ok {
				p.CFG = &f
			}
		case "seed":
			if n, ok := coerce.Int(value); ok {
				p.Seed = &n
			}
		case "model":
			p.Model = stringPtr(value)
		case "size":
			p.Width, p.Height = parseSize(value)
		case "schedule type", "scheduler", "schedule":
			p.Scheduler = stringPtr(value)
		case "version":
			p.Version = stringPtr(value)
		case "loras", "lora":
			loras = append(loras, ParseLoraList(value)...)
		default:
			if label, ok := extraKeys[key]; ok {
				if p.Extra == nil {
					p.Extra = map[string]string{}
				}
				p.Extra[label] = value
			}
		}
	}
	return loras
}

func parseSize(value string) (int64, int64) {
	parts := strings.SplitN(strings.ToLower(value), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, okW := coerce.Int(parts[0])
	h, okH := coerce.Int(parts[1])
	if !okW || !okH {
		return 0, 0
	}
	return w, h
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		inner := value[1 : len(value)-1]
		return strings.ReplaceAll(inner, `\"`, `"`)
	}
	return value
}

func stringPtr(s string) *string {
	return &s
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
