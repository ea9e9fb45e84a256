package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *ProbeCache {
	t.Helper()
	cache, err := OpenProbeCache(filepath.Join(t.TempDir(), "cache", "history.db"))
	if err != nil {
		t.Fatalf("OpenProbeCache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestProbeCacheLookupAndInvalidation(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	mod := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	if _, ok, err := cache.Lookup(ctx, "/out/a.mp3", 10, mod); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Store(ctx, "/out/a.mp3", 10, mod, 90*time.Second); err != nil {
		t.Fatalf("Store: %v", err)
	}
	d, ok, err := cache.Lookup(ctx, "/out/a.mp3", 10, mod)
	if err != nil || !ok || d != 90*time.Second {
		t.Fatalf("expected hit of 90s, got %v ok=%v err=%v", d, ok, err)
	}
	if _, ok, _ := cache.Lookup(ctx, "/out/a.mp3", 11, mod); ok {
		t.Fatal("size change must invalidate")
	}
	if _, ok, _ := cache.Lookup(ctx, "/out/a.mp3", 10, mod.Add(time.Second)); ok {
		t.Fatal("mtime change must invalidate")
	}
	if err := cache.Store(ctx, "/out/a.mp3", 11, mod, 95*time.Second); err != nil {
		t.Fatalf("Store update: %v", err)
	}
	if d, ok, _ := cache.Lookup(ctx, "/out/a.mp3", 11, mod); !ok || d != 95*time.Second {
		t.Fatalf("expected updated row, got %v ok=%v", d, ok)
	}
}

func TestProbeCachePrune(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	mod := time.Now()
	for _, p := range []string{"/out/a.mp3", "/out/b.mp3", "/out/c.mp3"} {
		if err := cache.Store(ctx, p, 1, mod, time.Second); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := cache.Prune(ctx, []string{"/out/b.mp3"})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows removed, got %d", removed)
	}
	if _, ok, _ := cache.Lookup(ctx, "/out/b.mp3", 1, mod); !ok {
		t.Fatal("expected kept row")
	}
}

func TestProbeCacheReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	cache, err := OpenProbeCache(path)
	if err != nil {
		t.Fatal(err)
	}
	mod := time.Unix(1700000000, 0)
	if err := cache.Store(context.Background(), "/out/x.mp3", 5, mod, 3*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := cache.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenProbeCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if d, ok, err := reopened.Lookup(context.Background(), "/out/x.mp3", 5, mod); err != nil || !ok || d != 3*time.Second {
		t.Fatalf("expected persisted row, got %v ok=%v err=%v", d, ok, err)
	}
}

func TestListUsesCache(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "talk.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	prober := &fakeProber{durations: map[string]time.Duration{"talk.mp3": 42 * time.Second}}
	index := NewFSIndex(dir, ".mp3", prober, openTestCache(t), nil)

	for i := 0; i < 2; i++ {
		entries, err := index.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) != 1 || entries[0].DisplayDuration != "00:42" {
			t.Fatalf("unexpected entries %+v", entries)
		}
	}
	if prober.calls != 1 {
		t.Fatalf("expected a single probe, got %d", prober.calls)
	}
}

func TestListPrunesRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := openTestCache(t)
	prober := &fakeProber{durations: map[string]time.Duration{"gone.mp3": time.Minute}}
	index := NewFSIndex(dir, ".mp3", prober, cache, nil)
	ctx := context.Background()

	if _, err := index.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := index.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, ok, err := cache.Lookup(ctx, path, info.Size(), info.ModTime()); err != nil || ok {
		t.Fatalf("expected pruned row, ok=%v err=%v", ok, err)
	}
}
