package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"transcribr/internal/services"
)

type fakeProber struct {
	durations map[string]time.Duration
	calls     int
}

func (p *fakeProber) Duration(_ context.Context, path string) (time.Duration, error) {
	p.calls++
	d, ok := p.durations[filepath.Base(path)]
	if !ok {
		return 0, errors.New("invalid data found when processing input")
	}
	return d, nil
}

func writeAt(t *testing.T, path, body string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{59*time.Second + 900*time.Millisecond, "00:59"},
		{61 * time.Second, "01:01"},
		{3599 * time.Second, "59:59"},
		{3600 * time.Second, "01:00:00"},
		{3661 * time.Second, "01:01:01"},
		{25 * time.Hour, "01:00:00"},
		{24 * time.Hour, "00:00"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestListOrdersNewestFirstAndProbes(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	writeAt(t, filepath.Join(dir, "old.mp3"), "a", base)
	writeAt(t, filepath.Join(dir, "new.mp3"), "bb", base.Add(time.Hour))
	writeAt(t, filepath.Join(dir, "b-tie.mp3"), "c", base.Add(30*time.Minute))
	writeAt(t, filepath.Join(dir, "a-tie.mp3"), "d", base.Add(30*time.Minute))
	writeAt(t, filepath.Join(dir, "new.srt"), "1\n", base.Add(time.Hour))
	writeAt(t, filepath.Join(dir, "notes.txt"), "x", base)

	prober := &fakeProber{durations: map[string]time.Duration{
		"old.mp3":   65 * time.Second,
		"new.mp3":   2*time.Hour + 3*time.Second,
		"a-tie.mp3": time.Second,
	}}
	index := NewFSIndex(dir, "mp3", prober, nil, nil)

	entries, err := index.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"new.mp3", "a-tie.mp3", "b-tie.mp3", "old.mp3"}
	if len(names) != len(want) {
		t.Fatalf("unexpected entries %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order %v, want %v", names, want)
		}
	}

	newest := entries[0]
	if !newest.HasCaptions {
		t.Fatal("expected new.mp3 to have captions")
	}
	if newest.DisplayDuration != "02:00:03" {
		t.Fatalf("unexpected duration %q", newest.DisplayDuration)
	}
	if newest.Date != base.Add(time.Hour).Format(time.ANSIC) {
		t.Fatalf("unexpected date %q", newest.Date)
	}
	if newest.SizeBytes != 2 {
		t.Fatalf("unexpected size %d", newest.SizeBytes)
	}
	if entries[3].DisplayDuration != "01:05" || entries[3].HasCaptions {
		t.Fatalf("unexpected old entry %+v", entries[3])
	}

	failed := entries[2]
	if failed.DurationKnown || failed.DisplayDuration != "--:--" {
		t.Fatalf("expected unknown duration for probe failure, got %+v", failed)
	}
}

func TestListMissingDirectory(t *testing.T) {
	index := NewFSIndex(filepath.Join(t.TempDir(), "missing"), ".mp3", &fakeProber{}, nil, nil)
	if _, err := index.List(context.Background()); !errors.Is(err, services.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	body := "1\n00:00:00,000 --> 00:00:01,000\nhello\n\n"
	if err := os.WriteFile(filepath.Join(dir, "clip.srt"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	index := NewFSIndex(dir, ".mp3", &fakeProber{}, nil, nil)

	got, err := index.Resolve(context.Background(), "clip.mp3")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != body {
		t.Fatalf("unexpected body %q", got)
	}

	if _, err := index.Resolve(context.Background(), "../elsewhere/clip.mp3"); err != nil {
		t.Fatalf("expected directory components to be ignored: %v", err)
	}

	if _, err := index.Resolve(context.Background(), "silent.mp3"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
