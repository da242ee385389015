// Package graph resolves generation parameters out of serialized node-graph
// workflows ("API format" prompts: a map from node id to
// {class_type, inputs, _meta}).
//
// Nodes are held in an arena ordered the way a JavaScript engine would
// enumerate the source object, with an index from node id to arena slot.
// Input values are either literals or references to another node's output,
// and references are pre-bound to arena slots at parse time; dangling
// references stay unresolved and never produce errors.
//
// Resolution is static: the graph is never executed. Reference lookups take
// exactly one hop through a known primitive-value field, while prompt tracing
// follows text-producing chains under a shared hop budget so malformed or
// cyclic graphs always terminate.
//
// Semantic roles (sampler, guider, scheduler, seed source, model loader,
// LoRA loaders) are matched against alias tables that list every known node
// type name for that role. Extend those tables when a new tool version or
// custom node pack appears; never narrow them.
package graph
