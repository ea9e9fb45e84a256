package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transcribr/internal/captions"
	"transcribr/internal/services"
	"transcribr/internal/testsupport"
	"transcribr/internal/transcribe"
)

func TestTranscribeWritesCaptionsAndBundle(t *testing.T) {
	env := setupCLITestEnv(t)
	src := testsupport.WriteMedia(t, t.TempDir(), "lecture.mp4", 250_000)

	out, _, err := runCLI(t, env, "transcribe", "--skip-preflight", "--tier", "medium", "--language", "english", src)
	if err != nil {
		t.Fatalf("transcribe: %v\n%s", err, out)
	}
	requireContains(t, out, "Transcribing 1 file(s): language English, quality Medium")
	requireContains(t, out, "lecture.mp4 (0.3 MB)")
	requireContains(t, out, "2 caption(s)")
	requireContains(t, out, "Bundle: "+env.cfg.Paths.ArchivePath)

	body, err := os.ReadFile(filepath.Join(env.cfg.Paths.OutputDir, "lecture.srt"))
	if err != nil {
		t.Fatalf("read captions: %v", err)
	}
	entries, err := captions.Parse(string(body))
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected 2 cues, got %d (%v)", len(entries), err)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.InputDir, "lecture.mp4")); err != nil {
		t.Fatalf("expected persisted input: %v", err)
	}
	if _, err := os.Stat(env.cfg.Paths.ArchivePath); err != nil {
		t.Fatalf("expected bundle: %v", err)
	}
	if len(env.loader.Tiers) != 1 || env.loader.Tiers[0] != transcribe.TierMedium {
		t.Fatalf("expected one medium load, got %v", env.loader.Tiers)
	}
	if len(env.model.Languages) != 1 || env.model.Languages[0] != "english" {
		t.Fatalf("expected english hint, got %v", env.model.Languages)
	}
}

func TestTranscribeDefaultsToAutoAndConfiguredTier(t *testing.T) {
	env := setupCLITestEnv(t)
	src := testsupport.WriteMedia(t, t.TempDir(), "clip.wav", 10)

	if _, _, err := runCLI(t, env, "transcribe", "--skip-preflight", src); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if env.model.Languages[0] != transcribe.AutoDetect {
		t.Fatalf("expected auto detect, got %q", env.model.Languages[0])
	}
	if env.loader.Tiers[0] != transcribe.TierLow {
		t.Fatalf("expected default tier low, got %q", env.loader.Tiers[0])
	}
}

func TestTranscribeReportsEmptyTranscript(t *testing.T) {
	env := setupCLITestEnv(t)
	env.model.Segments = nil
	src := testsupport.WriteMedia(t, t.TempDir(), "silence.mp3", 10)

	out, _, err := runCLI(t, env, "transcribe", "--skip-preflight", src)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	requireContains(t, out, "No subtitles found.")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "silence.srt")); !os.IsNotExist(err) {
		t.Fatalf("expected no caption file, stat err=%v", err)
	}
}

func TestTranscribeContinuesPastRejectedUpload(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	bad := testsupport.WriteMedia(t, dir, "notes.txt", 10)
	good := testsupport.WriteMedia(t, dir, "talk.mkv", 10)

	out, _, err := runCLI(t, env, "transcribe", "--skip-preflight", bad, good)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 job(s) failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	requireContains(t, out, "notes.txt")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "talk.srt")); err != nil {
		t.Fatalf("expected captions for second job: %v", err)
	}
}

func TestTranscribeRejectsUnknownLanguage(t *testing.T) {
	env := setupCLITestEnv(t)
	src := testsupport.WriteMedia(t, t.TempDir(), "clip.wav", 10)

	_, _, err := runCLI(t, env, "transcribe", "--skip-preflight", "--language", "klingon", src)
	if !errors.Is(err, services.ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language, got %v", err)
	}
	if len(env.loader.Tiers) != 0 {
		t.Fatal("model should not load for a rejected request")
	}
}

func TestTranscribeRejectsUnknownTier(t *testing.T) {
	env := setupCLITestEnv(t)
	src := testsupport.WriteMedia(t, t.TempDir(), "clip.wav", 10)

	if _, _, err := runCLI(t, env, "transcribe", "--skip-preflight", "--tier", "ultra", src); err == nil {
		t.Fatal("expected tier error")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "gone.mp4")
	if _, _, err := runCLI(t, env, "transcribe", "--skip-preflight", missing); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildRequestAcceptsLowercaseAuto(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	req, err := buildRequest(cfg, "auto", "")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Language != transcribe.AutoDetect || req.Tier != transcribe.TierLow {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestBuildRequestNormalizesPaddedAuto(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	req, err := buildRequest(cfg, " Auto ", "")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Language != transcribe.AutoDetect {
		t.Fatalf("expected exact sentinel, got %q", req.Language)
	}
}
