package jobs

import (
	"context"
	"errors"
	"testing"

	"transcribr/internal/captions"
	"transcribr/internal/testsupport"
	"transcribr/internal/transcribe"
)

type countingArchiver struct {
	calls  int
	failAt int
}

func (a *countingArchiver) Rebuild(context.Context) (string, error) {
	a.calls++
	if a.failAt > 0 && a.calls >= a.failAt {
		return "", errors.New("disk full")
	}
	return "all.zip", nil
}

func newRunnerFixture(t *testing.T) (*Runner, *countingArchiver, *testsupport.StubLoader, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	model := &testsupport.StubModel{Segments: []captions.Segment{{Start: 0, End: 1, Text: "hi"}}}
	loader := &testsupport.StubLoader{Model: model}
	processor := NewProcessor(cfg, &testsupport.CopyConverter{}, transcribe.NewEngine(loader, nil), nil)
	archiver := &countingArchiver{}
	return NewRunner(processor, archiver, cfg.LockPath(), nil), archiver, loader, cfg.LockPath()
}

func TestRunContinuesAfterFailedJob(t *testing.T) {
	runner, archiver, loader, _ := newRunnerFixture(t)
	uploads := []Upload{
		upload("one.mp4", "1"),
		upload("notes.txt", "bad"),
		upload("three.wav", "3"),
	}
	var progress []Progress
	outcomes, err := runner.Run(context.Background(), uploads, Request{Language: transcribe.AutoDetect, Tier: transcribe.TierMedium}, func(p Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Failed() || !outcomes[1].Failed() || outcomes[2].Failed() {
		t.Fatalf("unexpected outcome pattern: %+v", outcomes)
	}
	if archiver.calls != 3 {
		t.Fatalf("expected 2 per-job rebuilds plus a final one, got %d", archiver.calls)
	}
	if len(progress) != 3 || progress[2].Done != 3 || progress[2].Total != 3 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if progress[0].BatchID == "" || progress[0].BatchID != progress[2].BatchID {
		t.Fatalf("expected a stable batch id, got %+v", progress)
	}
	if len(loader.Tiers) != 1 || loader.Tiers[0] != transcribe.TierMedium {
		t.Fatalf("expected model loaded once for the batch, got %v", loader.Tiers)
	}
}

func TestRunArchiveFailureStopsBatch(t *testing.T) {
	runner, archiver, _, _ := newRunnerFixture(t)
	archiver.failAt = 1
	outcomes, err := runner.Run(context.Background(), []Upload{upload("a.mp4", "a"), upload("b.mp4", "b")}, Request{Tier: transcribe.TierLow}, nil)
	if err == nil {
		t.Fatal("expected archive error")
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected batch to stop after first job, got %d outcomes", len(outcomes))
	}
}

func TestRunRejectsConcurrentBatch(t *testing.T) {
	runner, _, _, lockPath := newRunnerFixture(t)
	held, err := AcquireOutputLock(lockPath)
	if err != nil {
		t.Fatalf("AcquireOutputLock: %v", err)
	}
	defer held.Release()

	_, err = runner.Run(context.Background(), []Upload{upload("a.mp4", "a")}, Request{Tier: transcribe.TierLow}, nil)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestRunReleasesLock(t *testing.T) {
	runner, _, _, lockPath := newRunnerFixture(t)
	if _, err := runner.Run(context.Background(), nil, Request{Tier: transcribe.TierLow}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lock, err := AcquireOutputLock(lockPath)
	if err != nil {
		t.Fatalf("expected lock to be free after Run: %v", err)
	}
	_ = lock.Release()
}
