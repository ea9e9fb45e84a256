package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"transcribr/internal/config"
)

// Requirement defines an external dependency transcribr relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// LookPath resolves commands; replaced in tests.
var LookPath = exec.LookPath

// Requirements returns the tools needed by cfg's media and recognition settings.
func Requirements(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required to convert uploads to " + cfg.Media.AudioFormat,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Reads durations for the history listing",
			Optional:    true,
		},
	}
	switch cfg.Recognition.Engine {
	case config.EngineWhisperCpp:
		requirements = append(requirements, Requirement{
			Name:        "whisper.cpp",
			Command:     cfg.Recognition.WhisperCppBinary,
			Description: "Required for whisper.cpp transcription",
		})
	default:
		requirements = append(requirements, Requirement{
			Name:        "uvx",
			Command:     cfg.Recognition.UVXBinary,
			Description: "Required for WhisperX-driven transcription",
		})
	}
	return requirements
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
