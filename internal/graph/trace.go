package graph

import "strings"

// MaxTraceHops bounds prompt tracing. The budget is shared by nested
// traces so cyclic graphs terminate.
const MaxTraceHops = 10

var (
	promptTextFields   = []string{"text", "string", "prompt", "positive"}
	promptFollowFields = []string{"positive", "text1", "conditioning"}
)

// Titles used by the title-based prompt fallback.
const (
	TitlePositivePrompt = "positive prompt"
	TitleNegativePrompt = "negative prompt"
)

// TracePrompt follows a text-producing chain from start until a string is
// found or the hop budget runs out.
func (g *Graph) TracePrompt(start Input) Value {
	if !start.Present() {
		return Value{Status: NotApplicable}
	}
	budget := MaxTraceHops
	return g.trace(start, &budget)
}

func (g *Graph) trace(current Input, budget *int) Value {
	for *budget > 0 {
		*budget--
		if current.Kind == InputString {
			return scalar(current)
		}
		if current.Kind != InputRef {
			break
		}
		node := g.target(current.Ref)
		if node == nil {
			break
		}
		for _, field := range promptTextFields {
			if in := node.In(field); in.Kind == InputString {
				return scalar(in)
			}
		}
		for _, field := range promptFollowFields {
			if in := node.In(field); in.Kind == InputRef {
				return g.trace(in, budget)
			}
		}
		current = First(node.In("text"), node.In("string"))
	}
	return unresolved()
}

// TracePromptByTitle finds the first node titled one of titles and traces
// from its text input.
func (g *Graph) TracePromptByTitle(titles ...string) Value {
	node := g.FindByTitle(titles...)
	if node == nil {
		return Value{Status: NotApplicable}
	}
	return g.TracePrompt(node.In("text"))
}

// FindByTitle returns the first node whose title case-insensitively equals
// one of titles.
func (g *Graph) FindByTitle(titles ...string) *Node {
	if g == nil {
		return nil
	}
	for i := range g.nodes {
		title := strings.TrimSpace(g.nodes[i].Title)
		if title == "" {
			continue
		}
		for _, want := range titles {
			if strings.EqualFold(title, want) {
				return &g.nodes[i]
			}
		}
	}
	return nil
}
