// Package whisperx runs WhisperX through uvx as a recognition backend.
//
// Loader satisfies transcribe.Loader: it resolves a quality tier to a WhisperX
// model name and returns a Model that transcribes audio files by invoking
// `uvx whisperx` and decoding the JSON segments it writes.
//
// Configuration options (CUDA, VAD method, Hugging Face token) are passed via
// Config. Failures are tagged services.ErrRecognition; unknown language hints
// are tagged services.ErrUnsupportedLanguage.
package whisperx
