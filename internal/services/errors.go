package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the pipeline. Callers classify failures with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPersist             = errors.New("persist failure")
	ErrConversion          = errors.New("conversion failure")
	ErrRecognition         = errors.New("recognition failure")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSerialization       = errors.New("serialization failure")
	ErrNotFound            = errors.New("not found")
	ErrExternalTool        = errors.New("external tool error")
	ErrConfiguration       = errors.New("configuration error")
)

var kinds = []error{
	ErrInvalidInput,
	ErrPersist,
	ErrConversion,
	ErrRecognition,
	ErrUnsupportedLanguage,
	ErrSerialization,
	ErrNotFound,
	ErrExternalTool,
	ErrConfiguration,
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker. The marker should be one of the exported kinds above;
// a nil marker is treated as ErrExternalTool.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the first error kind found in err's chain, or nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
