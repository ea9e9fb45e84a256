// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe through an injectable command runner
//
// Helper methods on Result provide duration parsing and stream counts used by
// the history listing and the dependency check.
package ffprobe
