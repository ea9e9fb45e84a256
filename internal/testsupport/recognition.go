package testsupport

import (
	"context"
	"os"
	"sync"

	"transcribr/internal/captions"
	"transcribr/internal/transcribe"
)

// StubModel returns canned segments and records the calls it receives.
type StubModel struct {
	Segments []captions.Segment
	Err      error

	mu        sync.Mutex
	Languages []string
	Audio     []string
}

// TranscribeAuto records an auto-detect call.
func (m *StubModel) TranscribeAuto(_ context.Context, audioPath string) ([]captions.Segment, error) {
	return m.record(audioPath, transcribe.AutoDetect)
}

// TranscribeLanguage records a call with an explicit language.
func (m *StubModel) TranscribeLanguage(_ context.Context, audioPath, language string) ([]captions.Segment, error) {
	return m.record(audioPath, language)
}

func (m *StubModel) record(audioPath, language string) ([]captions.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Languages = append(m.Languages, language)
	m.Audio = append(m.Audio, audioPath)
	if m.Err != nil {
		return nil, m.Err
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, err
	}
	return append([]captions.Segment(nil), m.Segments...), nil
}

// StubLoader hands out one StubModel and counts loads per tier.
type StubLoader struct {
	Model *StubModel
	Err   error

	mu    sync.Mutex
	Tiers []transcribe.Tier
}

// Load records tier and returns the stub model.
func (l *StubLoader) Load(_ context.Context, tier transcribe.Tier) (transcribe.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Tiers = append(l.Tiers, tier)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Model, nil
}

// CopyConverter "converts" by copying src to dest, standing in for ffmpeg.
type CopyConverter struct {
	Err   error
	Calls int
}

// Convert copies src into dest.
func (c *CopyConverter) Convert(_ context.Context, src, dest string) error {
	c.Calls++
	if c.Err != nil {
		return c.Err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
