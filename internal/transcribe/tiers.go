package transcribe

import (
	"fmt"
	"strings"

	"transcribr/internal/services"
)

// Tier is a named quality/resource configuration for the recognition model.
type Tier string

const (
	TierTiny    Tier = "tiny"
	TierLow     Tier = "low"
	TierMedium  Tier = "medium"
	TierHighest Tier = "highest"
)

// DefaultTier is used when no tier is configured.
const DefaultTier = TierLow

type tierInfo struct {
	label string
	model string
	vram  int // MiB, informational only
}

var tierTable = map[Tier]tierInfo{
	TierTiny:    {label: "Tiny (1GB VRAM)", model: "tiny", vram: 1000},
	TierLow:     {label: "Low (2GB VRAM)", model: "small", vram: 2000},
	TierMedium:  {label: "Medium (5GB VRAM)", model: "medium", vram: 5000},
	TierHighest: {label: "Highest (10GB VRAM)", model: "large-v3", vram: 10000},
}

// Tiers returns every tier from smallest to largest.
func Tiers() []Tier {
	return []Tier{TierTiny, TierLow, TierMedium, TierHighest}
}

// ParseTier accepts a tier key ("low") or its label ("Low (2GB VRAM)").
func ParseTier(value string) (Tier, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return DefaultTier, nil
	}
	for _, tier := range Tiers() {
		if strings.EqualFold(trimmed, string(tier)) || strings.EqualFold(trimmed, tierTable[tier].label) {
			return tier, nil
		}
	}
	return "", services.Wrap(services.ErrInvalidInput, "transcribe", "parse tier", fmt.Sprintf("unknown tier %q", value), nil)
}

// Label returns the user-facing tier name.
func (t Tier) Label() string {
	if info, ok := tierTable[t]; ok {
		return info.label
	}
	return string(t)
}

// Model returns the Whisper model name backing the tier.
func (t Tier) Model() string {
	if info, ok := tierTable[t]; ok {
		return info.model
	}
	return ""
}

// VRAMMiB returns the approximate video memory the tier's model needs.
func (t Tier) VRAMMiB() int {
	return tierTable[t].vram
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierTable[t]
	return ok
}
