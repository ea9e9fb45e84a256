package transcribe

import (
	"context"

	"transcribr/internal/captions"
)

// AutoDetect is the language hint that asks the model to detect the language.
const AutoDetect = "Auto"

// Model is a loaded recognition model.
type Model interface {
	// TranscribeAuto transcribes audioPath letting the model detect the language.
	TranscribeAuto(ctx context.Context, audioPath string) ([]captions.Segment, error)
	// TranscribeLanguage transcribes audioPath in the given language.
	TranscribeLanguage(ctx context.Context, audioPath, language string) ([]captions.Segment, error)
}

// Loader loads the model for a tier.
type Loader interface {
	Load(ctx context.Context, tier Tier) (Model, error)
}

// IsAuto reports whether hint requests language auto-detection: the exact
// AutoDetect sentinel or an empty hint. Other spellings are not normalized.
func IsAuto(hint string) bool {
	return hint == "" || hint == AutoDetect
}

// Transcribe runs model over audioPath. The auto-detect hint selects
// TranscribeAuto; any other hint is passed to TranscribeLanguage unchanged.
// A model that recognizes nothing yields an empty, non-nil slice and no error.
// Model errors are returned as-is.
func Transcribe(ctx context.Context, model Model, languageHint, audioPath string) ([]captions.Segment, error) {
	var (
		segments []captions.Segment
		err      error
	)
	if IsAuto(languageHint) {
		segments, err = model.TranscribeAuto(ctx, audioPath)
	} else {
		segments, err = model.TranscribeLanguage(ctx, audioPath, languageHint)
	}
	if err != nil {
		return nil, err
	}
	if segments == nil {
		segments = []captions.Segment{}
	}
	return segments, nil
}
