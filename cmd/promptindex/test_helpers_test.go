package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptindex/internal/config"
	"promptindex/internal/testsupport"
)

const graphChunk = `{"3":{"class_type":"KSampler","inputs":{"seed":42,"steps":20,"cfg":7,"sampler_name":"euler","scheduler":"normal","positive":["6",0],"negative":["7",0],"model":["4",0]}},` +
	`"4":{"class_type":"CheckpointLoaderSimple","inputs":{"ckpt_name":"sdxl.safetensors"}},` +
	`"6":{"class_type":"CLIPTextEncode","inputs":{"text":"a red fox in the snow"}},` +
	`"7":{"class_type":"CLIPTextEncode","inputs":{"text":"blurry"}}}`

const parametersText = "castle on a hill\nNegative prompt: fog\nSteps: 30, Sampler: DPM++ 2M, CFG scale: 6.5, Seed: 7, Size: 512x512, Model: dreamshaper"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	library    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("PROMPTINDEX_INDEX_DIR", "")

	configPath := filepath.Join(home, ".config", "promptindex", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		library:    testsupport.LibraryDir(cfg),
	}
}

// writeLibrary fills the library with a graph-path PNG, a text-path PNG,
// and a PNG without metadata.
func (e *cliTestEnv) writeLibrary(t *testing.T) {
	t.Helper()
	testsupport.WritePNG(t, filepath.Join(e.library, "fox.png"), 8, 8,
		testsupport.TextChunk{Keyword: "prompt", Text: graphChunk},
	)
	testsupport.WritePNG(t, filepath.Join(e.library, "castle.png"), 4, 4,
		testsupport.TextChunk{Keyword: "parameters", Text: parametersText},
	)
	testsupport.WritePNG(t, filepath.Join(e.library, "plain.png"), 2, 2)
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.configPath)
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("promptindex %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nindex_dir = %q\nlog_dir = %q\nlibrary_dirs = [%q]\n\n[scan]\nworkers = 2\n\n[ffprobe]\nenabled = false\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.IndexDir,
		cfg.Paths.LogDir,
		testsupport.LibraryDir(cfg),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
