// Package payload locates the generation payload embedded in a file's
// metadata: either a serialized node graph or a delimited parameter text.
package payload

import (
	"encoding/json"
	"regexp"
	"strings"

	"promptindex/internal/graph"
	"promptindex/internal/jsonutil"
	"promptindex/internal/params"
	"promptindex/internal/tags"
)

// PreferredKeys are probed, case-insensitively and in order, before every
// other tag value.
var PreferredKeys = []string{
	"prompt",
	"usercomment",
	"comment",
	"workflow",
	"imagedescription",
	"description",
	"parameters",
	"model",
	"make",
	"software",
}

// TextKey is the tag that holds parameter text even without a parameter line.
const TextKey = "parameters"

var (
	suffixObject = regexp.MustCompile(`(?is)(?:prompt|workflow)\s*:\s*(\{.*\})\s*$`)
	anyObject    = regexp.MustCompile(`(?s)\{.*\}`)
)

// Kind identifies which extraction path a located payload feeds.
type Kind uint8

const (
	KindNone Kind = iota
	KindGraph
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindGraph:
		return "graph"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Sources are the metadata values a file exposes. Chunk is the format's
// named graph chunk, when the container has one.
type Sources struct {
	Chunk    string
	HasChunk bool
	Pairs    []tags.Pair
}

// Found is a located payload. Raw holds the payload exactly as embedded.
type Found struct {
	Kind  Kind
	Key   string
	Raw   string
	Graph *graph.Graph
}

// Locate tries the graph path first and the text path second.
func Locate(src Sources) (Found, bool) {
	if found, ok := FindGraph(src); ok {
		return found, true
	}
	return FindText(src.Pairs)
}

// FindGraph returns the first candidate that decodes into a node graph.
// Malformed JSON only disqualifies the candidate it came from.
func FindGraph(src Sources) (Found, bool) {
	if src.HasChunk {
		if g, raw, ok := graphFromValue("prompt", src.Chunk); ok {
			return Found{Kind: KindGraph, Key: "prompt", Raw: raw, Graph: g}, true
		}
	}
	for _, idx := range candidateOrder(src.Pairs) {
		pair := src.Pairs[idx]
		if g, raw, ok := graphFromValue(pair.Key, pair.Value); ok {
			return Found{Kind: KindGraph, Key: pair.Key, Raw: raw, Graph: g}, true
		}
	}
	return Found{}, false
}

// FindText returns the first value that reads as parameter text. The
// parameters tag qualifies on content alone; every other tag must contain a
// parameter line or a negative prompt marker.
func FindText(pairs []tags.Pair) (Found, bool) {
	for _, idx := range candidateOrder(pairs) {
		pair := pairs[idx]
		text := strings.TrimSpace(pair.Value)
		if text == "" || looksLikeJSON(text) {
			continue
		}
		if strings.EqualFold(pair.Key, TextKey) || params.LooksLikeParameters(text) {
			return Found{Kind: KindText, Key: pair.Key, Raw: text}, true
		}
	}
	return Found{}, false
}

// candidateOrder lists pair indexes with preferred keys first, in
// PreferredKeys order, followed by every remaining pair in input order.
func candidateOrder(pairs []tags.Pair) []int {
	order := make([]int, 0, len(pairs))
	used := make([]bool, len(pairs))
	for _, key := range PreferredKeys {
		for i, pair := range pairs {
			if !used[i] && strings.EqualFold(strings.TrimSpace(pair.Key), key) {
				used[i] = true
				order = append(order, i)
			}
		}
	}
	for i := range pairs {
		if !used[i] {
			order = append(order, i)
		}
	}
	return order
}

func graphFromValue(key, value string) (*graph.Graph, string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, "", false
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "comment":
		if g, raw, ok := graphFromEnvelope(value); ok {
			return g, raw, true
		}
	case "prompt":
		if g, err := graph.Parse([]byte(value)); err == nil {
			return g, value, true
		}
	}
	for _, candidate := range objectCandidates(value) {
		if g, err := graph.Parse([]byte(candidate)); err == nil {
			return g, candidate, true
		}
	}
	return nil, "", false
}

// graphFromEnvelope handles values that are a JSON object whose prompt
// member holds the graph, either inline or as an encoded string.
func graphFromEnvelope(value string) (*graph.Graph, string, bool) {
	var envelope struct {
		Prompt json.RawMessage `json:"prompt"`
	}
	if err := jsonutil.Unmarshal([]byte(value), &envelope); err != nil || len(envelope.Prompt) == 0 {
		return nil, "", false
	}
	raw := string(envelope.Prompt)
	var encoded string
	if json.Unmarshal(envelope.Prompt, &encoded) == nil {
		raw = strings.TrimSpace(encoded)
	}
	g, err := graph.Parse([]byte(raw))
	if err != nil {
		return nil, "", false
	}
	return g, raw, true
}

// objectCandidates applies the substring heuristics in order: a trailing
// prompt:{...} or workflow:{...} object, then the widest {...} span.
func objectCandidates(value string) []string {
	var out []string
	if m := suffixObject.FindStringSubmatch(value); m != nil {
		out = append(out, m[1])
	}
	if m := anyObject.FindString(value); m != "" && (len(out) == 0 || out[0] != m) {
		out = append(out, m)
	}
	return out
}

func looksLikeJSON(text string) bool {
	return strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}
