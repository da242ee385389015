package graph

// Role is a semantic part a node can play in a generation workflow.
type Role uint8

const (
	RoleSampler Role = iota
	RoleSamplerSelect
	RoleGuider
	RoleScheduler
	RoleSeedSource
	RoleModelLoader
	RoleLoraLoader
	RoleLoraLoaderModelOnly
	RoleLoraManager
	roleCount
)

var roleNames = [roleCount]string{
	"sampler",
	"sampler_select",
	"guider",
	"scheduler",
	"seed_source",
	"model_loader",
	"lora_loader",
	"lora_loader_model_only",
	"lora_manager",
}

func (r Role) String() string {
	if r >= roleCount {
		return "unknown"
	}
	return roleNames[r]
}

// roleAliases lists every known node type name per role across tool versions
// and custom node packs. Extend, never narrow.
var roleAliases = [roleCount][]string{
	RoleSampler: {
		"KSampler",
		"KSamplerAdvanced",
		"SamplerCustom",
		"SamplerCustomAdvanced",
		"KSampler (Efficient)",
		"KSampler Adv. (Efficient)",
		"KSampler SDXL (Eff.)",
		"KSampler //Inspire",
		"KSamplerAdvanced //Inspire",
		"KSampler with Variations",
		"ImpactKSamplerBasicPipe",
		"ImpactKSamplerAdvancedBasicPipe",
		"easy kSampler",
		"easy fullkSampler",
		"easy preSampling",
		"DetailerForEach",
		"FaceDetailer",
		"UltimateSDUpscale",
		"WanVideoSampler",
		"HunyuanVideoSampler",
	},
	RoleSamplerSelect: {
		"KSamplerSelect",
		"SamplerSelect",
		"SamplerEulerAncestral",
		"SamplerDPMPP_2M_SDE",
		"SamplerDPMPP_SDE",
	},
	RoleGuider: {
		"FluxGuidance",
		"CFGGuider",
		"BasicGuider",
		"DualCFGGuider",
		"PerpNegGuider",
		"Guider_Basic",
	},
	RoleScheduler: {
		"BasicScheduler",
		"KarrasScheduler",
		"ExponentialScheduler",
		"PolyexponentialScheduler",
		"SDTurboScheduler",
		"BetaSamplingScheduler",
		"AlignYourStepsScheduler",
		"VPScheduler",
		"LaplaceScheduler",
		"GITSScheduler",
		"OptimalStepsScheduler",
		"Flux2Scheduler",
	},
	RoleSeedSource: {
		"RandomNoise",
		"Seed (rgthree)",
		"Seed",
		"Seed Generator",
		"CR Seed",
		"easy seed",
		"Seed Everywhere",
		"Primitive integer [Crystools]",
		"PrimitiveInt",
		"ImpactInt",
		"Int Literal",
	},
	RoleModelLoader: {
		"CheckpointLoaderSimple",
		"CheckpointLoader",
		"CheckpointLoader|pysssss",
		"CheckpointLoaderSimpleWithNoiseSelect",
		"ImageOnlyCheckpointLoader",
		"Efficient Loader",
		"Eff. Loader SDXL",
		"easy a1111Loader",
		"easy comfyLoader",
		"easy fullLoader",
		"UNETLoader",
		"UnetLoaderGGUF",
		"UnetLoaderGGUFAdvanced",
		"DiffusersLoader",
		"WanVideoModelLoader",
	},
	RoleLoraLoader: {
		"LoraLoader",
		"LoraLoader|pysssss",
		"LoraLoader //Inspire",
		"CR Load LoRA",
		"Load Lora",
		"LoraLoaderBlockWeight //Inspire",
	},
	RoleLoraLoaderModelOnly: {
		"LoraLoaderModelOnly",
		"LoraLoaderModelOnly|pysssss",
		"LoraModelLoader",
	},
	RoleLoraManager: {
		"Lora Loader (LoraManager)",
	},
}

var roleIndex = func() map[string][]Role {
	index := map[string][]Role{}
	for role := Role(0); role < roleCount; role++ {
		for _, name := range roleAliases[role] {
			index[name] = append(index[name], role)
		}
	}
	return index
}()

// Aliases returns the known node type names for role.
func Aliases(role Role) []string {
	if role >= roleCount {
		return nil
	}
	out := make([]string, len(roleAliases[role]))
	copy(out, roleAliases[role])
	return out
}

// HasRole reports whether classType is a known alias for role.
func HasRole(classType string, role Role) bool {
	for _, r := range roleIndex[classType] {
		if r == role {
			return true
		}
	}
	return false
}

// FindFirstByType returns the first node, in enumeration order, whose
// class_type is one of types.
func (g *Graph) FindFirstByType(types ...string) *Node {
	if g == nil || len(types) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	for i := range g.nodes {
		if _, ok := allowed[g.nodes[i].ClassType]; ok {
			return &g.nodes[i]
		}
	}
	return nil
}

// Roles holds the first node matched for each role.
type Roles struct {
	nodes [roleCount]*Node
}

// Node returns the node playing role, or nil.
func (r Roles) Node(role Role) *Node {
	if role >= roleCount {
		return nil
	}
	return r.nodes[role]
}

// MatchRoles assigns every role its first matching node in a single scan.
func (g *Graph) MatchRoles() Roles {
	var roles Roles
	if g == nil {
		return roles
	}
	for i := range g.nodes {
		for _, role := range roleIndex[g.nodes[i].ClassType] {
			if roles.nodes[role] == nil {
				roles.nodes[role] = &g.nodes[i]
			}
		}
	}
	return roles
}
