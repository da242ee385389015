package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"promptindex/internal/jsonutil"
)

// ErrNotGraph indicates the payload decoded as JSON but contains no nodes
// with a class_type.
var ErrNotGraph = errors.New("payload is not a node graph")

// InputKind classifies a node input value.
type InputKind uint8

const (
	InputMissing InputKind = iota
	InputNull
	InputString
	InputNumber
	InputBool
	InputRef
	InputList
	InputObject
)

// Ref points at an output slot of another node.
type Ref struct {
	NodeID string
	Output int
	slot   int
}

// Input is a single node input: a literal, a reference, or an inline
// list/object kept as raw JSON.
type Input struct {
	Kind InputKind
	// Text holds the string value, or the literal text of a number.
	Text string
	Bool bool
	Ref  Ref
	Raw  json.RawMessage
}

// Present reports whether the input would survive a null-coalescing check.
func (in Input) Present() bool {
	return in.Kind != InputMissing && in.Kind != InputNull
}

// Node is one graph node.
type Node struct {
	ID        string
	ClassType string
	Title     string
	Inputs    map[string]Input
}

// In returns the named input. It is safe to call on a nil node.
func (n *Node) In(name string) Input {
	if n == nil {
		return Input{}
	}
	return n.Inputs[name]
}

// Graph is a parsed workflow held in an arena.
type Graph struct {
	nodes []Node
	index map[string]int
}

// Parse decodes an API-format workflow. The NaN literal is tolerated. Node
// entries that are not objects are ignored. ErrNotGraph is returned when no
// node carries a class_type.
func Parse(data []byte) (*Graph, error) {
	fields, err := jsonutil.ObjectFields(data)
	if err != nil {
		return nil, err
	}
	ordered := enumerationOrder(fields)

	g := &Graph{index: make(map[string]int, len(ordered))}
	typed := 0
	for _, field := range ordered {
		node, ok := decodeNode(field.Key, field.Value)
		if !ok {
			continue
		}
		if node.ClassType != "" {
			typed++
		}
		g.index[node.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node)
	}
	if typed == 0 {
		return nil, ErrNotGraph
	}
	g.bindRefs()
	return g, nil
}

// Len reports the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	slot, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[slot], true
}

// Nodes returns the nodes in enumeration order. The slice must not be modified.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	return g.nodes
}

func (g *Graph) target(ref Ref) *Node {
	if ref.slot < 0 || ref.slot >= len(g.nodes) {
		return nil
	}
	return &g.nodes[ref.slot]
}

func (g *Graph) bindRefs() {
	for i := range g.nodes {
		for name, in := range g.nodes[i].Inputs {
			if in.Kind != InputRef {
				continue
			}
			slot, ok := g.index[in.Ref.NodeID]
			if !ok {
				slot = -1
			}
			in.Ref.slot = slot
			g.nodes[i].Inputs[name] = in
		}
	}
}

// enumerationOrder orders object members the way JavaScript enumerates them:
// array-index keys ascending, then the remaining keys in document order.
func enumerationOrder(fields []jsonutil.Field) []jsonutil.Field {
	var indexed, named []jsonutil.Field
	for _, f := range fields {
		if jsonutil.IsArrayIndex(f.Key) {
			indexed = append(indexed, f)
		} else {
			named = append(named, f)
		}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		if len(indexed[i].Key) != len(indexed[j].Key) {
			return len(indexed[i].Key) < len(indexed[j].Key)
		}
		return indexed[i].Key < indexed[j].Key
	})
	return append(indexed, named...)
}

type wireMeta struct {
	Title string `json:"title"`
}

func decodeNode(id string, raw json.RawMessage) (Node, bool) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil || members == nil {
		return Node{}, false
	}
	node := Node{ID: id, Inputs: map[string]Input{}}
	if ct, ok := members["class_type"]; ok {
		_ = json.Unmarshal(ct, &node.ClassType)
	}
	for _, key := range []string{"_meta", "meta"} {
		if metaRaw, ok := members[key]; ok {
			var meta wireMeta
			if json.Unmarshal(metaRaw, &meta) == nil && meta.Title != "" {
				node.Title = meta.Title
				break
			}
		}
	}
	if inputsRaw, ok := members["inputs"]; ok {
		var inputs map[string]json.RawMessage
		if json.Unmarshal(inputsRaw, &inputs) == nil {
			for name, value := range inputs {
				node.Inputs[name] = decodeInput(value)
			}
		}
	}
	return node, true
}

func decodeInput(raw json.RawMessage) Input {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Input{}
	}
	switch trimmed[0] {
	case '"':
		var s string
		if json.Unmarshal(trimmed, &s) != nil {
			return Input{}
		}
		return Input{Kind: InputString, Text: s}
	case 'n':
		return Input{Kind: InputNull}
	case 't', 'f':
		var b bool
		if json.Unmarshal(trimmed, &b) != nil {
			return Input{}
		}
		return Input{Kind: InputBool, Bool: b, Text: string(trimmed)}
	case '[':
		if ref, ok := decodeRef(trimmed); ok {
			return Input{Kind: InputRef, Ref: ref}
		}
		return Input{Kind: InputList, Raw: append(json.RawMessage(nil), trimmed...)}
	case '{':
		return Input{Kind: InputObject, Raw: append(json.RawMessage(nil), trimmed...)}
	default:
		var n json.Number
		if json.Unmarshal(trimmed, &n) != nil {
			return Input{}
		}
		return Input{Kind: InputNumber, Text: n.String()}
	}
}

func decodeRef(raw json.RawMessage) (Ref, bool) {
	var parts []json.RawMessage
	if json.Unmarshal(raw, &parts) != nil || len(parts) != 2 {
		return Ref{}, false
	}
	var id string
	if json.Unmarshal(parts[0], &id) != nil {
		var num json.Number
		if json.Unmarshal(parts[0], &num) != nil {
			return Ref{}, false
		}
		id = num.String()
	}
	var output json.Number
	if json.Unmarshal(parts[1], &output) != nil {
		return Ref{}, false
	}
	slot, err := output.Int64()
	if err != nil {
		return Ref{}, false
	}
	return Ref{NodeID: strings.TrimSpace(id), Output: int(slot), slot: -1}, true
}
