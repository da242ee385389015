package graph

import "promptindex/internal/lora"

// Params is everything the graph path recovers from one workflow. Each
// field keeps its resolution status; callers collapse to NA at assembly.
type Params struct {
	Prompt         Value
	NegativePrompt Value
	Seed           Value
	Steps          Value
	Sampler        Value
	Scheduler      Value
	// Guided is true when a guider node was found; Guidance is then
	// meaningful and CFG is not.
	Guided   bool
	CFG      Value
	Guidance Value
	Model    Value
	Loras    []lora.Entry
}

// Extract resolves the canonical generation parameters from the graph.
func (g *Graph) Extract() Params {
	roles := g.MatchRoles()
	sampler := roles.Node(RoleSampler)
	samplerSelect := roles.Node(RoleSamplerSelect)
	guider := roles.Node(RoleGuider)
	scheduler := roles.Node(RoleScheduler)
	seedSource := roles.Node(RoleSeedSource)
	loader := roles.Node(RoleModelLoader)

	var p Params
	p.Seed = g.Resolve(First(
		sampler.In("seed"),
		sampler.In("noise_seed"),
		seedSource.In("seed"),
		seedSource.In("noise_seed"),
		seedSource.In("value"),
	), LookupGeneric)
	p.Steps = g.Resolve(First(sampler.In("steps"), scheduler.In("steps")), LookupGeneric)
	p.Sampler = g.Resolve(First(
		sampler.In("sampler_name"),
		sampler.In("sampler"),
		samplerSelect.In("sampler"),
		samplerSelect.In("sampler_name"),
	), LookupSampler)
	p.Scheduler = g.Resolve(First(scheduler.In("scheduler"), sampler.In("scheduler")), LookupScheduler)

	if guider != nil {
		p.Guided = true
		p.Guidance = g.Resolve(First(guider.In("guidance"), guider.In("cfg")), LookupGeneric)
	} else {
		p.CFG = g.Resolve(First(sampler.In("cfg"), samplerSelect.In("cfg")), LookupGeneric)
	}

	p.Model = g.Resolve(First(loader.In("ckpt_name"), loader.In("unet_name")), LookupGeneric)

	p.Prompt = g.TracePrompt(First(
		sampler.In("positive"),
		guider.In("positive"),
		guider.In("conditioning"),
	))
	if !p.Prompt.OK() {
		p.Prompt = g.TracePromptByTitle(TitlePositivePrompt)
	}
	p.NegativePrompt = g.TracePrompt(First(sampler.In("negative"), guider.In("negative")))
	if !p.NegativePrompt.OK() {
		p.NegativePrompt = g.TracePromptByTitle(TitleNegativePrompt)
	}

	p.Loras = g.Loras()
	return p
}
