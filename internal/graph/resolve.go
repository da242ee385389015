package graph

// Lookup selects the primitive output fields probed on a referenced node.
type Lookup uint8

const (
	LookupGeneric Lookup = iota
	LookupSampler
	LookupScheduler
)

var primitiveFields = map[Lookup][]string{
	LookupGeneric:   {"value", "_int", "float"},
	LookupSampler:   {"value", "_int", "float", "sampler_name"},
	LookupScheduler: {"value", "_int", "float", "scheduler"},
}

// First returns the first present input, mirroring a null-coalescing chain.
func First(candidates ...Input) Input {
	for _, in := range candidates {
		if in.Present() {
			return in
		}
	}
	return Input{}
}

// Resolve turns an input into a terminal scalar. Literals are returned
// unchanged. A reference is followed exactly one hop: the referenced node's
// primitive output fields are probed in order and the first present one is
// returned. Dangling references and nodes without a primitive field are
// unresolved.
func (g *Graph) Resolve(in Input, lookup Lookup) Value {
	if in.Kind != InputRef {
		return scalar(in)
	}
	node := g.target(in.Ref)
	if node == nil {
		return unresolved()
	}
	fields, ok := primitiveFields[lookup]
	if !ok {
		fields = primitiveFields[LookupGeneric]
	}
	for _, field := range fields {
		candidate := node.In(field)
		if !candidate.Present() {
			continue
		}
		v := scalar(candidate)
		if v.Status == NotApplicable {
			return unresolved()
		}
		return v
	}
	return unresolved()
}
