package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transcribr/internal/captions"
	"transcribr/internal/config"
	"transcribr/internal/history"
	"transcribr/internal/jobs"
	"transcribr/internal/testsupport"
	"transcribr/internal/transcribe"
)

type fixedProber struct {
	duration time.Duration
	calls    int
}

func (p *fixedProber) Duration(context.Context, string) (time.Duration, error) {
	p.calls++
	return p.duration, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	model      *testsupport.StubModel
	loader     *testsupport.StubLoader
	converter  *testsupport.CopyConverter
	prober     *fixedProber
	clipboard  []string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(homeDir, ".config", "transcribr", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	model := &testsupport.StubModel{Segments: []captions.Segment{
		{Start: 0, End: 1.5, Text: "hello there"},
		{Start: 1.5, End: 3, Text: "general"},
	}}
	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		model:      model,
		loader:     &testsupport.StubLoader{Model: model},
		converter:  &testsupport.CopyConverter{},
		prober:     &fixedProber{duration: 83 * time.Second},
	}
}

func (env *cliTestEnv) backends() backends {
	return backends{
		loader: func(*config.Config, *slog.Logger) transcribe.Loader {
			return env.loader
		},
		converter: func(*config.Config) jobs.Converter {
			return env.converter
		},
		prober: func(*config.Config) history.DurationProber {
			return env.prober
		},
		copyText: func(text string) error {
			env.clipboard = append(env.clipboard, text)
			return nil
		},
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWith(env.backends())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if env.configPath != "" {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
archive_path = %q
log_dir = %q
cache_dir = %q

[recognition]
engine = %q
default_tier = %q
default_language = %q
whispercpp_models_dir = %q

[logging]
level = "error"
`,
		cfg.Paths.InputDir,
		cfg.Paths.OutputDir,
		cfg.Paths.ArchivePath,
		cfg.Paths.LogDir,
		cfg.Paths.CacheDir,
		cfg.Recognition.Engine,
		cfg.Recognition.DefaultTier,
		cfg.Recognition.DefaultLanguage,
		cfg.Recognition.WhisperCppModelsDir,
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
