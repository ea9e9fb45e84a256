package transcribe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transcribr/internal/services"
)

type countingLoader struct {
	mu     sync.Mutex
	loaded []Tier
	err    error
}

func (l *countingLoader) Load(_ context.Context, tier Tier) (Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.loaded = append(l.loaded, tier)
	return &stubModel{}, nil
}

func TestEngineReloadsOnlyOnTierChange(t *testing.T) {
	loader := &countingLoader{}
	engine := NewEngine(loader, nil)
	ctx := context.Background()

	noop := func(Model) error { return nil }
	for _, tier := range []Tier{TierLow, TierLow, TierMedium, TierMedium, TierLow} {
		if err := engine.Use(ctx, tier, noop); err != nil {
			t.Fatalf("Use(%s): %v", tier, err)
		}
	}
	want := []Tier{TierLow, TierMedium, TierLow}
	if len(loader.loaded) != len(want) {
		t.Fatalf("expected loads %v, got %v", want, loader.loaded)
	}
	for i := range want {
		if loader.loaded[i] != want[i] {
			t.Fatalf("load %d = %s, want %s", i, loader.loaded[i], want[i])
		}
	}
	if engine.Tier() != TierLow || engine.Loads() != 3 {
		t.Fatalf("unexpected engine state tier=%s loads=%d", engine.Tier(), engine.Loads())
	}
}

func TestEngineLoadFailure(t *testing.T) {
	loader := &countingLoader{err: errors.New("model missing")}
	engine := NewEngine(loader, nil)
	called := false
	err := engine.Use(context.Background(), TierTiny, func(Model) error {
		called = true
		return nil
	})
	if !errors.Is(err, services.ErrRecognition) {
		t.Fatalf("expected recognition error, got %v", err)
	}
	if called {
		t.Fatal("callback must not run without a model")
	}
	if engine.Tier() != "" {
		t.Fatalf("expected no tier after failed load, got %s", engine.Tier())
	}
}

func TestEngineRejectsUnknownTier(t *testing.T) {
	engine := NewEngine(&countingLoader{}, nil)
	err := engine.Use(context.Background(), Tier("ultra"), func(Model) error { return nil })
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEngineSerializesUse(t *testing.T) {
	engine := NewEngine(&countingLoader{}, nil)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		tier := TierLow
		if i%2 == 1 {
			tier = TierTiny
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = engine.Use(ctx, tier, func(Model) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive use, saw %d concurrent callbacks", maxSeen)
	}
}
