// Package main hosts the transcribr CLI entrypoint and command graph.
//
// The Cobra-based command tree submits media files to the transcription
// pipeline, browses the history of produced captions, maintains the archive
// bundle, and scaffolds configuration. It centralizes configuration resolution
// and logging setup so subcommands only deal with presentation.
package main
