package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"transcribr/internal/captions"
	"transcribr/internal/language"
	"transcribr/internal/services"
	"transcribr/internal/transcribe"
)

// CommandRunner executes name with args.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Loader resolves tiers to WhisperX models.
type Loader struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
	lookPath      func(string) (string, error)
}

// NewLoader creates a WhisperX loader with the given configuration.
func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = UVXCommand
	}
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{cfg: cfg, logger: logger, lookPath: exec.LookPath}
}

// WithCommandRunner sets a custom command runner (for testing).
func (l *Loader) WithCommandRunner(runner CommandRunner) {
	l.commandRunner = runner
	l.lookPath = func(name string) (string, error) { return name, nil }
}

// Load returns the model for tier. WhisperX fetches weights lazily, so loading
// only verifies the launcher is installed.
func (l *Loader) Load(_ context.Context, tier transcribe.Tier) (transcribe.Model, error) {
	if !tier.Valid() {
		return nil, services.Wrap(services.ErrRecognition, "load", "tier", fmt.Sprintf("unknown tier %q", tier), nil)
	}
	if _, err := l.lookPath(l.cfg.Binary); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "load", "lookup "+l.cfg.Binary, "whisperx launcher not found", err)
	}
	l.logger.Debug("whisperx model selected",
		slog.String("tier", string(tier)),
		slog.String("model", tier.Model()),
		slog.Bool("cuda", l.cfg.CUDAEnabled),
	)
	return &Model{loader: l, name: tier.Model()}, nil
}

// Model transcribes audio with a single WhisperX model.
type Model struct {
	loader *Loader
	name   string
}

// Name returns the WhisperX model name.
func (m *Model) Name() string {
	return m.name
}

// TranscribeAuto transcribes audioPath and lets WhisperX detect the language.
func (m *Model) TranscribeAuto(ctx context.Context, audioPath string) ([]captions.Segment, error) {
	return m.transcribe(ctx, audioPath, "")
}

// TranscribeLanguage transcribes audioPath in the named language.
func (m *Model) TranscribeLanguage(ctx context.Context, audioPath, lang string) ([]captions.Segment, error) {
	code, ok := language.Code(lang)
	if !ok {
		return nil, services.Wrap(services.ErrUnsupportedLanguage, "transcribe", "language", fmt.Sprintf("%q is not supported", lang), nil)
	}
	return m.transcribe(ctx, audioPath, code)
}

func (m *Model) transcribe(ctx context.Context, audioPath, code string) ([]captions.Segment, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "validate", "audio path required", nil)
	}
	outputDir, err := os.MkdirTemp("", "transcribr-whisperx-")
	if err != nil {
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "workspace", "", err)
	}
	defer os.RemoveAll(outputDir)

	args := m.loader.buildArgs(audioPath, outputDir, m.name, code)
	if err := m.loader.run(ctx, m.loader.cfg.Binary, args...); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "whisperx", filepath.Base(audioPath), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "load segments", filepath.Base(audioPath), err)
	}
	return ToCaptions(segments), nil
}

// run executes a command, using the custom runner if set.
func (l *Loader) run(ctx context.Context, name string, args ...string) error {
	if l.commandRunner != nil {
		return l.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(strings.TrimSpace(string(output)), 512))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (l *Loader) buildArgs(source, outputDir, model, code string) []string {
	args := make([]string, 0, 40)

	if l.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	args = append(args, "--vad_method", l.cfg.VADMethod)
	if l.cfg.VADMethod == VADMethodPyannote && l.cfg.HFToken != "" {
		args = append(args, "--hf_token", l.cfg.HFToken)
	}

	if code != "" {
		args = append(args, "--language", code)
	}

	if l.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// ToCaptions converts WhisperX segments, dropping segments with no text.
func ToCaptions(segments []Segment) []captions.Segment {
	out := make([]captions.Segment, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		out = append(out, captions.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return out
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
