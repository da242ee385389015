package graph

import (
	"encoding/json"
	"strings"

	"promptindex/internal/coerce"
	"promptindex/internal/jsonutil"
	"promptindex/internal/lora"
)

// Loras extracts LoRA references. Loader nodes are read first, with every
// strength resolved through Resolve. When none are found the first LoRA
// manager node's inline list is used as-is. Entries without a name are
// dropped.
func (g *Graph) Loras() []lora.Entry {
	if g == nil {
		return nil
	}
	var out []lora.Entry
	for i := range g.nodes {
		node := &g.nodes[i]
		full := HasRole(node.ClassType, RoleLoraLoader)
		if !full && !HasRole(node.ClassType, RoleLoraLoaderModelOnly) {
			continue
		}
		nameValue := g.Resolve(node.In("lora_name"), LookupGeneric)
		if !nameValue.OK() || nameValue.Kind != InputString {
			continue
		}
		name := lora.CleanName(nameValue.Text)
		if name == "" {
			continue
		}
		entry := lora.Entry{Name: name, StrengthModel: lora.DefaultStrength}
		if f, ok := g.Resolve(node.In("strength_model"), LookupGeneric).Float(); ok {
			entry.StrengthModel = f
		}
		if full {
			if f, ok := g.Resolve(node.In("strength_clip"), LookupGeneric).Float(); ok {
				entry.StrengthClip = lora.Float(f)
			}
		}
		out = append(out, entry)
	}
	if len(out) > 0 {
		return out
	}
	manager := g.FindFirstByType(roleAliases[RoleLoraManager]...)
	if manager == nil {
		return nil
	}
	return managerLoras(manager.In("loras"))
}

type managerEntry struct {
	Name         any `json:"name"`
	Strength     any `json:"strength"`
	ClipStrength any `json:"clipStrength"`
}

func managerLoras(in Input) []lora.Entry {
	raw := in.Raw
	switch in.Kind {
	case InputList:
	case InputObject:
		var wrapper struct {
			Value json.RawMessage `json:"__value__"`
		}
		if json.Unmarshal(in.Raw, &wrapper) != nil || len(wrapper.Value) == 0 {
			return nil
		}
		raw = wrapper.Value
	default:
		return nil
	}
	var items []managerEntry
	if jsonutil.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]lora.Entry, 0, len(items))
	for _, item := range items {
		name, _ := item.Name.(string)
		name = lora.CleanName(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		entry := lora.Entry{Name: name, StrengthModel: lora.DefaultStrength}
		if f, ok := coerce.Float(item.Strength); ok {
			entry.StrengthModel = f
		}
		if f, ok := coerce.Float(item.ClipStrength); ok {
			entry.StrengthClip = lora.Float(f)
		}
		out = append(out, entry)
	}
	return out
}
