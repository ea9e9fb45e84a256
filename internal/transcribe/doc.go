// Package transcribe adapts a speech-recognition backend to the caption
// pipeline.
//
// Transcribe owns the auto-detect versus forced-language decision. Engine owns
// the one loaded model shared by all jobs: it reloads through a Loader when the
// requested Tier changes and serializes use so two models are never live at
// the same time.
package transcribe
