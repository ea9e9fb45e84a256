// Package services defines shared utilities consumed by the job pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, job names, and stage names for
//     logging.
//   - Structured error kinds plus the Wrap helper so every pipeline failure
//     can be classified with errors.Is regardless of which stage produced it.
//
// Recognition backends live in subpackages (whisperx, whispercpp).
package services
