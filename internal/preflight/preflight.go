package preflight

import (
	"context"
	"fmt"

	"transcribr/internal/config"
	"transcribr/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// RunAll executes the checks applicable to cfg. modelFile, when non-empty,
// names the whisper.cpp model the batch will load.
func RunAll(_ context.Context, cfg *config.Config, modelFile string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckWritableParent("Archive bundle", cfg.Paths.ArchivePath),
		CheckFreeSpace("Output free space", cfg.Paths.OutputDir, cfg.Media.MinFreeMiB),
	}

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Path}
		if !status.Available {
			result.Detail = status.Detail
			if status.Optional {
				result.Passed = true
				result.Warning = true
			}
		}
		results = append(results, result)
	}

	if cfg.Recognition.Engine == config.EngineWhisperCpp && modelFile != "" {
		results = append(results, CheckModelFile("Model file", modelFile))
	}
	if cfg.Recognition.VADMethod == "pyannote" && cfg.Recognition.HFToken == "" {
		results = append(results, Result{Name: "Hugging Face token", Detail: "pyannote VAD requires hf_token or HF_TOKEN"})
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary formats failed results as a single error message, or "" when all passed.
func Summary(results []Result) string {
	failed := Failed(results)
	if len(failed) == 0 {
		return ""
	}
	msg := fmt.Sprintf("%d preflight check(s) failed:", len(failed))
	for _, r := range failed {
		msg += fmt.Sprintf(" %s: %s;", r.Name, r.Detail)
	}
	return msg[:len(msg)-1]
}
