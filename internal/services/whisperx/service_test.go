package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"transcribr/internal/services"
	"transcribr/internal/transcribe"
)

func argValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func fakeWhisperX(t *testing.T, payload string, captured *[]string) CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Fatalf("unexpected binary %q", name)
		}
		*captured = append([]string(nil), args...)
		outputDir, ok := argValue(args, "--output_dir")
		if !ok {
			t.Fatal("missing --output_dir")
		}
		source := args[slices.Index(args, "whisperx")+1]
		base := filepath.Base(source)
		base = base[:len(base)-len(filepath.Ext(base))]
		return os.WriteFile(filepath.Join(outputDir, base+".json"), []byte(payload), 0o644)
	}
}

func TestTranscribeLanguageBuildsArgsAndLoadsSegments(t *testing.T) {
	loader := NewLoader(Config{}, nil)
	var args []string
	loader.WithCommandRunner(fakeWhisperX(t, `{"segments":[
		{"start":0.5,"end":2.0,"text":" Hello there. "},
		{"start":2.0,"end":3.0,"text":"   "},
		{"start":3.0,"end":4.25,"text":"General Kenobi."}
	]}`, &args))

	model, err := loader.Load(context.Background(), transcribe.TierHighest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	segments, err := model.TranscribeLanguage(context.Background(), "/out/clip.mp3", "english")
	if err != nil {
		t.Fatalf("TranscribeLanguage: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[1].Start != 3.0 || segments[1].End != 4.25 || segments[1].Text != "General Kenobi." {
		t.Fatalf("unexpected segment %+v", segments[1])
	}
	if got, _ := argValue(args, "--model"); got != "large-v3" {
		t.Fatalf("expected large-v3 model, got %q", got)
	}
	if got, _ := argValue(args, "--language"); got != "en" {
		t.Fatalf("expected --language en, got %q", got)
	}
	if got, _ := argValue(args, "--output_format"); got != "json" {
		t.Fatalf("expected json output, got %q", got)
	}
	if got, _ := argValue(args, "--device"); got != CPUDevice {
		t.Fatalf("expected cpu device, got %q", got)
	}
}

func TestTranscribeAutoOmitsLanguage(t *testing.T) {
	loader := NewLoader(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf"}, nil)
	var args []string
	loader.WithCommandRunner(fakeWhisperX(t, `{"segments":[]}`, &args))

	model, err := loader.Load(context.Background(), transcribe.TierTiny)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	segments, err := model.TranscribeAuto(context.Background(), "/out/talk.mp3")
	if err != nil {
		t.Fatalf("TranscribeAuto: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("auto-detect must not pass --language: %v", args)
	}
	if got, _ := argValue(args, "--hf_token"); got != "hf" {
		t.Fatalf("expected hf token, got %q", got)
	}
	if got, _ := argValue(args, "--device"); got != CUDADevice {
		t.Fatalf("expected cuda device, got %q", got)
	}
	if args[0] != "--index-url" || args[1] != CUDAIndexURL {
		t.Fatalf("expected CUDA index first, got %v", args[:2])
	}
}

func TestTranscribeLanguageUnsupported(t *testing.T) {
	loader := NewLoader(Config{}, nil)
	loader.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("runner should not be called")
		return nil
	})
	model, err := loader.Load(context.Background(), transcribe.TierLow)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = model.TranscribeLanguage(context.Background(), "/out/clip.mp3", "klingon")
	if !errors.Is(err, services.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestTranscribeFailureIsRecognitionError(t *testing.T) {
	loader := NewLoader(Config{}, nil)
	loader.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("CUDA out of memory")
	})
	model, err := loader.Load(context.Background(), transcribe.TierMedium)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = model.TranscribeAuto(context.Background(), "/out/clip.mp3")
	if !errors.Is(err, services.ErrRecognition) {
		t.Fatalf("expected ErrRecognition, got %v", err)
	}
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	loader := NewLoader(Config{}, nil)
	loader.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	if _, err := loader.Load(context.Background(), transcribe.Tier("huge")); !errors.Is(err, services.ErrRecognition) {
		t.Fatalf("expected ErrRecognition, got %v", err)
	}
}

func TestLoadSegmentsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSegments(path); err == nil {
		t.Fatal("expected parse error")
	}
}
