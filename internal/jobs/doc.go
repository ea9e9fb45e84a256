// Package jobs runs uploaded media through the transcription pipeline.
//
// Processor handles a single upload: it persists the raw file into the input
// directory, converts it to the intermediate audio format, transcribes it with
// the shared recognition engine, serializes the segments to SRT, and writes the
// caption file beside the audio in the output directory. Every failure is
// reported as a *StageError naming the stage that failed; the wrapped error
// carries a services error kind.
//
// Runner processes a batch sequentially under an exclusive lock on the output
// directory, rebuilding the archive bundle after every completed job.
package jobs
