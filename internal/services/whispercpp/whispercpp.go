package whispercpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

// DefaultBinary is the whisper.cpp command line front end.
const DefaultBinary = "whisper-cli"

// CommandResult captures one process execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Config captures whisper.cpp settings.
type Config struct {
	Binary    string
	ModelsDir string
}

// Loader resolves tiers to ggml model files.
type Loader struct {
	cfg    Config
	logger *slog.Logger
	runner CommandRunner
	stat   func(string) (os.FileInfo, error)
}

// NewLoader returns a whisper.cpp loader.
func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{cfg: cfg, logger: logger, runner: execRunner{}, stat: os.Stat}
}

// WithCommandRunner sets a custom command runner (for testing).
func (l *Loader) WithCommandRunner(runner CommandRunner) {
	if runner == nil {
		runner = execRunner{}
	}
	l.runner = runner
}

// ModelPath returns the ggml file for tier inside modelsDir.
func ModelPath(modelsDir string, tier transcribe.Tier) string {
	return filepath.Join(modelsDir, "ggml-"+tier.Model()+".bin")
}

// ModelPath returns the ggml file used for tier.
func (l *Loader) ModelPath(tier transcribe.Tier) string {
	return ModelPath(l.cfg.ModelsDir, tier)
}

// Load verifies the tier's model file exists and returns a Model bound to it.
func (l *Loader) Load(_ context.Context, tier transcribe.Tier) (transcribe.Model, error) {
	if !tier.Valid() {
		return nil, services.Wrap(services.ErrRecognition, "load", "tier", fmt.Sprintf("unknown tier %q", tier), nil)
	}
	path := l.ModelPath(tier)
	info, err := l.stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrRecognition, "load", "model file", path, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, services.Wrap(services.ErrRecognition, "load", "model file", path+" is not a model", nil)
	}
	l.logger.Debug("whisper.cpp model selected",
		slog.String("tier", string(tier)),
		slog.String("model_path", path),
	)
	return &Model{loader: l, path: path}, nil
}

// Model transcribes audio with one ggml model.
type Model struct {
	loader *Loader
	path   string
}

// TranscribeAuto transcribes audioPath with language detection.
func (m *Model) TranscribeAuto(ctx context.Context, audioPath string) ([]captions.Segment, error) {
	return m.transcribe(ctx, audioPath, "auto")
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
	workDir, err := os.MkdirTemp("", "transcribr-whispercpp-")
	if err != nil {
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "workspace", "", err)
	}
	defer os.RemoveAll(workDir)

	base := filepath.Join(workDir, "transcript")
	args := BuildArgs(m.path, audioPath, base, code)
	result, err := m.loader.runner.Run(ctx, m.loader.cfg.Binary, args...)
	if err != nil {
		detail := fmt.Sprintf("%s (exit %d): %s", filepath.Base(audioPath), result.ExitCode, strings.TrimSpace(result.Stderr))
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "whisper.cpp", detail, err)
	}

	segments, err := LoadSegments(base + ".json")
	if err != nil {
		return nil, services.Wrap(services.ErrRecognition, "transcribe", "load segments", "whisper.cpp completed but transcript json is unreadable", err)
	}
	return segments, nil
}

// BuildArgs builds whisper-cli args for JSON transcript export.
func BuildArgs(modelPath, audioPath, outputBase, code string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outputBase,
		"-oj",
		"-np",
	}
	if code != "" {
		args = append(args, "-l", code)
	}
	return args
}

type payload struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// LoadSegments decodes a whisper-cli JSON file into caption segments.
// Entries with blank text are skipped.
func LoadSegments(path string) ([]captions.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("parse whisper.cpp json: %w", err)
	}
	segments := make([]captions.Segment, 0, len(decoded.Transcription))
	for _, item := range decoded.Transcription {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		segments = append(segments, captions.Segment{
			Start: float64(item.Offsets.From) / 1000,
			End:   float64(item.Offsets.To) / 1000,
			Text:  item.Text,
		})
	}
	return segments, nil
}
