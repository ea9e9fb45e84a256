// Package whispercpp runs whisper.cpp's whisper-cli as a recognition backend.
//
// Models are ggml files named ggml-<model>.bin inside a models directory. The
// backend asks whisper-cli for JSON output (-oj) and converts the millisecond
// offsets of each transcription entry into caption segments.
package whispercpp
