// Package history lists previously produced artifacts and resolves a selection
// to its caption text.
//
// FSIndex reads the output directory directly: each converted audio file is one
// history entry, and its caption file shares the audio file's stem. Durations
// come from ffprobe and are memoized in ProbeCache, a small SQLite database
// keyed by path, size and modification time.
package history
