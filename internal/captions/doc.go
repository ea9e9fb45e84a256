// Package captions renders recognized speech segments as SRT caption bodies.
//
// FormatTimestamp produces the fixed-width cue timestamps, Serialize turns an
// ordered segment list into a complete caption file body, and Parse reads a
// body back into numbered entries for inspection. Everything here is pure and
// free of I/O so the job pipeline can serialize before it persists anything.
package captions
