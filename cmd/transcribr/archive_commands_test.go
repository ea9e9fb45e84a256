package main

import (
	"errors"
	"strings"
	"testing"

	"transcribr/internal/jobs"
	"transcribr/internal/services"
	"transcribr/internal/testsupport"
)

func TestArchiveRebuildAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.cfg.Paths.OutputDir
	testsupport.WriteMedia(t, out, "b.mp3", 10)
	testsupport.WriteMedia(t, out, "a.srt", 10)

	stdout, _, err := runCLI(t, env, "archive", "rebuild")
	if err != nil {
		t.Fatalf("archive rebuild: %v", err)
	}
	requireContains(t, stdout, "(2 file(s))")

	stdout, _, err = runCLI(t, env, "archive", "list")
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	if got := strings.Fields(stdout); len(got) != 2 || got[0] != "a.srt" || got[1] != "b.mp3" {
		t.Fatalf("unexpected bundle listing %q", got)
	}
}

func TestArchiveListWithoutBundle(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "archive", "list")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArchiveRebuildBusy(t *testing.T) {
	env := setupCLITestEnv(t)
	lock, err := jobs.AcquireOutputLock(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, env, "archive", "rebuild")
	if !errors.Is(err, jobs.ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
}
