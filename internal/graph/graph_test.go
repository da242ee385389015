package graph_test

import (
	"errors"
	"testing"

	"promptindex/internal/graph"
)

func mustParse(t *testing.T, payload string) *graph.Graph {
	t.Helper()
	g, err := graph.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return g
}

func TestParseKSamplerScenario(t *testing.T) {
	g := mustParse(t, `{"1":{"class_type":"KSampler","inputs":{"seed":42,"steps":20,"sampler_name":"euler","positive":["2",0]}},"2":{"class_type":"CLIPTextEncode","inputs":{"text":"a cat"}}}`)
	p := g.Extract()

	checks := map[string]struct {
		got  string
		want string
	}{
		"seed":    {p.Seed.String(), "42"},
		"steps":   {p.Steps.String(), "20"},
		"sampler": {p.Sampler.String(), "euler"},
		"prompt":  {p.Prompt.String(), "a cat"},
		"cfg":     {p.CFG.String(), graph.NA},
		"model":   {p.Model.String(), graph.NA},
	}
	for field, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", field, c.got, c.want)
		}
	}
	if p.Guided {
		t.Fatal("expected cfg path without a guider")
	}
}

func TestParseRejectsNonGraphs(t *testing.T) {
	cases := []string{
		`{"nodes":[{"id":1,"type":"KSampler"}],"links":[]}`,
		`{}`,
	}
	for _, payload := range cases {
		if _, err := graph.Parse([]byte(payload)); !errors.Is(err, graph.ErrNotGraph) {
			t.Errorf("Parse(%s) error = %v, want ErrNotGraph", payload, err)
		}
	}
	if _, err := graph.Parse([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseToleratesNaN(t *testing.T) {
	g := mustParse(t, `{"3":{"class_type":"KSampler","inputs":{"seed":7,"denoise":NaN,"cfg":NaN}}}`)
	node, ok := g.Node("3")
	if !ok {
		t.Fatal("expected node 3")
	}
	if node.In("denoise").Kind != graph.InputNull {
		t.Fatalf("expected denoise to be null, got %v", node.In("denoise").Kind)
	}
	if got := g.Extract().CFG.String(); got != graph.NA {
		t.Fatalf("expected NaN cfg to render %q, got %q", graph.NA, got)
	}
}

func TestNodesFollowJavaScriptEnumerationOrder(t *testing.T) {
	g := mustParse(t, `{"10":{"class_type":"KSampler","inputs":{"seed":2}},"2":{"class_type":"KSampler","inputs":{"seed":1}},"b":{"class_type":"X","inputs":{}},"a":{"class_type":"Y","inputs":{}}}`)
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	want := []string{"2", "10", "b", "a"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("node order = %v, want %v", ids, want)
		}
	}
	if got := g.Extract().Seed.String(); got != "1" {
		t.Fatalf("expected first sampler by enumeration order, got seed %q", got)
	}
}

func TestResolveOneHopPrimitives(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"KSampler","inputs":{"seed":["5",0],"steps":["6",0],"cfg":["7",0],"sampler_name":["8",0],"scheduler":["9",0]}},
		"5":{"class_type":"PrimitiveNode","inputs":{"value":123456789012345678}},
		"6":{"class_type":"Int","inputs":{"_int":30}},
		"7":{"class_type":"Float","inputs":{"float":6.50}},
		"8":{"class_type":"SamplerPicker","inputs":{"sampler_name":"dpmpp_2m"}},
		"9":{"class_type":"SchedulerPicker","inputs":{"scheduler":"karras","sampler_name":"wrong"}}
	}`)
	p := g.Extract()
	if p.Seed.String() != "123456789012345678" {
		t.Errorf("seed = %q", p.Seed.String())
	}
	if p.Steps.String() != "30" {
		t.Errorf("steps = %q", p.Steps.String())
	}
	if p.CFG.String() != "6.5" {
		t.Errorf("cfg = %q", p.CFG.String())
	}
	if p.Sampler.String() != "dpmpp_2m" {
		t.Errorf("sampler = %q", p.Sampler.String())
	}
	if p.Scheduler.String() != "karras" {
		t.Errorf("scheduler = %q", p.Scheduler.String())
	}
}

func TestResolveDoesNotChaseMultipleHops(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"KSampler","inputs":{"steps":["2",0]}},
		"2":{"class_type":"Reroute","inputs":{"value":["3",0]}},
		"3":{"class_type":"Int","inputs":{"value":25}}
	}`)
	v := g.Extract().Steps
	if v.Status != graph.Unresolved || v.String() != graph.NA {
		t.Fatalf("expected unresolved two-hop reference, got %+v", v)
	}
}

func TestResolveDanglingReference(t *testing.T) {
	g := mustParse(t, `{"1":{"class_type":"KSampler","inputs":{"seed":["99",0],"positive":["98",0]}}}`)
	p := g.Extract()
	if p.Seed.Status != graph.Unresolved {
		t.Fatalf("expected dangling seed unresolved, got %v", p.Seed.Status)
	}
	if p.Prompt.String() != graph.NA {
		t.Fatalf("expected prompt %q, got %q", graph.NA, p.Prompt.String())
	}
}

func TestFirstSkipsNullAndMissing(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"SamplerCustomAdvanced","inputs":{"noise":["2",0],"sampler":["3",0],"sigmas":["4",0],"guider":["5",0]}},
		"2":{"class_type":"RandomNoise","inputs":{"noise_seed":987}},
		"3":{"class_type":"KSamplerSelect","inputs":{"sampler_name":"euler"}},
		"4":{"class_type":"BasicScheduler","inputs":{"scheduler":"simple","steps":28,"denoise":1}},
		"5":{"class_type":"BasicGuider","inputs":{"conditioning":["6",0]}},
		"6":{"class_type":"FluxGuidance","inputs":{"conditioning":["7",0],"guidance":3.5}},
		"7":{"class_type":"CLIPTextEncode","inputs":{"text":"a lighthouse at dusk"}}
	}`)
	p := g.Extract()
	if p.Seed.String() != "987" {
		t.Errorf("seed = %q", p.Seed.String())
	}
	if p.Steps.String() != "28" {
		t.Errorf("steps = %q", p.Steps.String())
	}
	if p.Sampler.String() != "euler" {
		t.Errorf("sampler = %q", p.Sampler.String())
	}
	if p.Scheduler.String() != "simple" {
		t.Errorf("scheduler = %q", p.Scheduler.String())
	}
	if !p.Guided {
		t.Fatal("expected guider path")
	}
	if p.Prompt.String() != "a lighthouse at dusk" {
		t.Errorf("prompt = %q", p.Prompt.String())
	}
}

func TestGuidanceFromFluxGuidance(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"KSampler","inputs":{"cfg":1,"positive":["2",0]}},
		"2":{"class_type":"FluxGuidance","inputs":{"guidance":3.5,"conditioning":["3",0]}},
		"3":{"class_type":"CLIPTextEncode","inputs":{"text":"portrait"}}
	}`)
	p := g.Extract()
	if !p.Guided || p.Guidance.String() != "3.5" {
		t.Fatalf("expected guidance 3.5, got guided=%v %q", p.Guided, p.Guidance.String())
	}
	if p.CFG.Status != graph.NotApplicable {
		t.Fatalf("expected cfg not emitted alongside guidance, got %+v", p.CFG)
	}
	if p.Prompt.String() != "portrait" {
		t.Fatalf("prompt = %q", p.Prompt.String())
	}
}

func TestTracePromptCycleTerminates(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"KSampler","inputs":{"positive":["2",0],"negative":["4",0]}},
		"2":{"class_type":"ConditioningX","inputs":{"positive":["3",0]}},
		"3":{"class_type":"ConditioningY","inputs":{"positive":["2",0]}},
		"4":{"class_type":"TextLoop","inputs":{"text":["5",0]}},
		"5":{"class_type":"TextLoop","inputs":{"string":["4",0]}}
	}`)
	p := g.Extract()
	if p.Prompt.OK() || p.Prompt.String() != graph.NA {
		t.Fatalf("expected cyclic positive chain unresolved, got %+v", p.Prompt)
	}
	if p.NegativePrompt.String() != graph.NA {
		t.Fatalf("expected cyclic negative chain unresolved, got %+v", p.NegativePrompt)
	}
}

func TestTracePromptFollowsTextChains(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"KSampler","inputs":{"positive":["2",0],"negative":["5",0]}},
		"2":{"class_type":"CLIPTextEncode","inputs":{"text":["3",0]}},
		"3":{"class_type":"StringConcat","inputs":{"text1":["4",0]}},
		"4":{"class_type":"Text Multiline","inputs":{"text":"layered prompt"}},
		"5":{"class_type":"CLIPTextEncodeSDXL","inputs":{"string":"blurry"}}
	}`)
	p := g.Extract()
	if p.Prompt.String() != "layered prompt" {
		t.Fatalf("prompt = %q", p.Prompt.String())
	}
	if p.NegativePrompt.String() != "blurry" {
		t.Fatalf("negative = %q", p.NegativePrompt.String())
	}
}

func TestTracePromptExhaustsHopBudget(t *testing.T) {
	payload := `{"0":{"class_type":"KSampler","inputs":{"positive":["1",0]}}`
	for i := 1; i <= graph.MaxTraceHops+1; i++ {
		payload += `,"` + itoa(i) + `":{"class_type":"Passthrough","inputs":{"text":["` + itoa(i+1) + `",0]}}`
	}
	payload += `,"` + itoa(graph.MaxTraceHops+2) + `":{"class_type":"CLIPTextEncode","inputs":{"text":"too deep"}}}`
	g := mustParse(t, payload)
	if got := g.Extract().Prompt.String(); got != graph.NA {
		t.Fatalf("expected hop budget to stop tracing, got %q", got)
	}
}

func TestTracePromptTitleFallback(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"UnknownSampler","inputs":{}},
		"2":{"class_type":"CLIPTextEncode","inputs":{"text":"from title"},"_meta":{"title":"Positive Prompt"}},
		"3":{"class_type":"CLIPTextEncode","inputs":{"text":"bad hands"},"_meta":{"title":"NEGATIVE PROMPT"}}
	}`)
	p := g.Extract()
	if p.Prompt.String() != "from title" {
		t.Fatalf("prompt = %q", p.Prompt.String())
	}
	if p.NegativePrompt.String() != "bad hands" {
		t.Fatalf("negative = %q", p.NegativePrompt.String())
	}
}

func TestModelLoaderFallsBackToUnetName(t *testing.T) {
	g := mustParse(t, `{"4":{"class_type":"UNETLoader","inputs":{"unet_name":"flux1-dev.safetensors"}},"5":{"class_type":"KSampler","inputs":{}}}`)
	if got := g.Extract().Model.String(); got != "flux1-dev.safetensors" {
		t.Fatalf("model = %q", got)
	}
}

func TestFindHelpers(t *testing.T) {
	g := mustParse(t, `{"1":{"class_type":"A","inputs":{}},"2":{"class_type":"B","inputs":{},"meta":{"title":"Hero"}}}`)
	if n := g.FindFirstByType("B", "A"); n == nil || n.ID != "1" {
		t.Fatalf("FindFirstByType returned %+v", n)
	}
	if n := g.FindFirstByType("C"); n != nil {
		t.Fatalf("expected nil, got %+v", n)
	}
	if n := g.FindByTitle("hero"); n == nil || n.ID != "2" {
		t.Fatalf("FindByTitle returned %+v", n)
	}
}

func TestAliasTablesHaveNoDuplicates(t *testing.T) {
	roles := []graph.Role{
		graph.RoleSampler, graph.RoleSamplerSelect, graph.RoleGuider, graph.RoleScheduler,
		graph.RoleSeedSource, graph.RoleModelLoader, graph.RoleLoraLoader,
		graph.RoleLoraLoaderModelOnly, graph.RoleLoraManager,
	}
	for _, role := range roles {
		aliases := graph.Aliases(role)
		if len(aliases) == 0 {
			t.Errorf("role %s has no aliases", role)
		}
		seen := map[string]bool{}
		for _, a := range aliases {
			if seen[a] {
				t.Errorf("role %s lists %q twice", role, a)
			}
			seen[a] = true
			if !graph.HasRole(a, role) {
				t.Errorf("HasRole(%q, %s) = false", a, role)
			}
		}
	}
}

func TestSentinelCompletenessAcrossNodeSubsets(t *testing.T) {
	nodes := []string{
		`"1":{"class_type":"KSampler","inputs":{"seed":1,"steps":2,"cfg":3,"sampler_name":"euler","scheduler":"normal","positive":["5",0],"negative":["6",0]}}`,
		`"2":{"class_type":"BasicScheduler","inputs":{"scheduler":"karras","steps":9}}`,
		`"3":{"class_type":"CFGGuider","inputs":{"cfg":4.5}}`,
		`"4":{"class_type":"CheckpointLoaderSimple","inputs":{"ckpt_name":"model.safetensors"}}`,
		`"5":{"class_type":"CLIPTextEncode","inputs":{"text":"pos"}}`,
		`"6":{"class_type":"CLIPTextEncode","inputs":{"text":"neg"}}`,
	}
	for mask := 1; mask < 1<<len(nodes); mask++ {
		payload := "{"
		first := true
		for i, n := range nodes {
			if mask&(1<<i) == 0 {
				continue
			}
			if !first {
				payload += ","
			}
			payload += n
			first = false
		}
		payload += "}"
		g := mustParse(t, payload)
		p := g.Extract()
		values := []graph.Value{p.Prompt, p.NegativePrompt, p.Seed, p.Steps, p.Sampler, p.Scheduler, p.Model}
		if p.Guided {
			values = append(values, p.Guidance)
		} else {
			values = append(values, p.CFG)
		}
		for _, v := range values {
			s := v.String()
			if s == "" && v.Status != graph.Resolved {
				t.Fatalf("mask %b: unresolved value rendered empty", mask)
			}
			if v.Status != graph.Resolved && s != graph.NA {
				t.Fatalf("mask %b: unresolved value rendered %q", mask, s)
			}
		}
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{byte('0' + i%10)}, buf...)
		i /= 10
	}
	return string(buf)
}

func TestResolveExponentNumbers(t *testing.T) {
	g := mustParse(t, `{
		"1":{"class_type":"KSampler","inputs":{"cfg":2.5e-1,"denoise":1e-05,"steps":2E1}},
		"2":{"class_type":"LoraLoader","inputs":{"lora_name":"tiny.safetensors","strength_model":5e-1,"strength_clip":1E2}}
	}`)
	p := g.Extract()
	if got := p.CFG.String(); got != "0.25" {
		t.Errorf("cfg = %q, want 0.25", got)
	}
	if f, ok := p.CFG.Float(); !ok || f != 0.25 {
		t.Errorf("cfg float = %v %v, want 0.25", f, ok)
	}
	if got := p.Steps.String(); got != "20" {
		t.Errorf("steps = %q, want 20", got)
	}
	loras := g.Loras()
	if len(loras) != 1 {
		t.Fatalf("expected one lora, got %+v", loras)
	}
	if loras[0].StrengthModel != 0.5 {
		t.Errorf("strength_model = %v, want 0.5", loras[0].StrengthModel)
	}
	if loras[0].StrengthClip == nil || *loras[0].StrengthClip != 100 {
		t.Errorf("strength_clip = %v, want 100", loras[0].StrengthClip)
	}
}

func TestLoras(t *testing.T) {
	type want struct {
		name  string
		model float64
		clip  *float64
	}
	clip := func(f float64) *float64 { return &f }
	cases := []struct {
		name    string
		payload string
		want    []want
	}{
		{
			name: "loader strengths resolve through references",
			payload: `{
				"1":{"class_type":"LoraLoader","inputs":{"lora_name":"styles/foo.safetensors","strength_model":["2",0],"strength_clip":0.5}},
				"2":{"class_type":"Float","inputs":{"value":0.7}}
			}`,
			want: []want{{"foo", 0.7, clip(0.5)}},
		},
		{
			name: "model-only loader has no clip strength",
			payload: `{
				"1":{"class_type":"LoraLoaderModelOnly","inputs":{"lora_name":"b.safetensors","strength_model":0.9,"strength_clip":0.2}}
			}`,
			want: []want{{"b", 0.9, nil}},
		},
		{
			name: "missing strength defaults to one",
			payload: `{
				"1":{"class_type":"LoraLoader","inputs":{"lora_name":"c.ckpt"}}
			}`,
			want: []want{{"c", 1, nil}},
		},
		{
			name: "loaders win over manager",
			payload: `{
				"1":{"class_type":"LoraLoader","inputs":{"lora_name":"loader","strength_model":0.6,"strength_clip":0.6}},
				"2":{"class_type":"Lora Loader (LoraManager)","inputs":{"loras":[{"name":"managed","strength":0.1}]}}
			}`,
			want: []want{{"loader", 0.6, clip(0.6)}},
		},
		{
			name: "manager list used when no loader yields",
			payload: `{
				"1":{"class_type":"LoraLoader","inputs":{"lora_name":""}},
				"2":{"class_type":"Lora Loader (LoraManager)","inputs":{"loras":[{"name":"a","strength":0.3,"clipStrength":0.4},{"name":"","strength":1}]}}
			}`,
			want: []want{{"a", 0.3, clip(0.4)}},
		},
		{
			name: "manager value wrapper",
			payload: `{
				"2":{"class_type":"Lora Loader (LoraManager)","inputs":{"loras":{"__value__":[{"name":"dir/b.safetensors","strength":0.9}]}}}
			}`,
			want: []want{{"b", 0.9, nil}},
		},
		{
			name:    "no lora nodes",
			payload: `{"1":{"class_type":"KSampler","inputs":{"seed":1}}}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustParse(t, tc.payload).Loras()
			if len(got) != len(tc.want) {
				t.Fatalf("Loras() = %+v, want %d entries", got, len(tc.want))
			}
			for i, w := range tc.want {
				e := got[i]
				if e.Name != w.name || e.StrengthModel != w.model {
					t.Errorf("entry %d = %+v, want %s %v", i, e, w.name, w.model)
				}
				switch {
				case w.clip == nil && e.StrengthClip != nil:
					t.Errorf("entry %d clip = %v, want none", i, *e.StrengthClip)
				case w.clip != nil && (e.StrengthClip == nil || *e.StrengthClip != *w.clip):
					t.Errorf("entry %d clip = %v, want %v", i, e.StrengthClip, *w.clip)
				}
			}
		})
	}
}
