package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"transcribr/internal/services"
)

// Runner executes name with args.
type Runner func(ctx context.Context, name string, args ...string) error

// Converter normalizes media files into mono 16 kHz audio.
type Converter struct {
	binary string
	run    Runner
}

// NewConverter returns a Converter for binary (defaults to "ffmpeg").
func NewConverter(binary string) *Converter {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Converter{binary: binary, run: execRunner}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Converter) WithCommandRunner(runner Runner) {
	if runner == nil {
		runner = execRunner
	}
	c.run = runner
}

// Binary returns the configured ffmpeg executable.
func (c *Converter) Binary() string {
	return c.binary
}

// Convert transcodes src into dest. The codec follows dest's extension. A
// partially written dest is removed on failure.
func (c *Converter) Convert(ctx context.Context, src, dest string) error {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrConversion, "convert", "validate", "source and destination are required", nil)
	}
	if _, err := os.Stat(src); err != nil {
		return services.Wrap(services.ErrConversion, "convert", "stat source", filepath.Base(src), err)
	}
	args := BuildArgs(src, dest)
	if err := c.run(ctx, c.binary, args...); err != nil {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrConversion, "convert", "ffmpeg", filepath.Base(src), err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return services.Wrap(services.ErrConversion, "convert", "stat output", filepath.Base(dest), err)
	}
	if info.Size() == 0 {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrConversion, "convert", "verify output", filepath.Base(dest)+" is empty", nil)
	}
	return nil
}

// BuildArgs returns the ffmpeg arguments that convert src into dest.
func BuildArgs(src, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
	}
	args = append(args, codecArgs(filepath.Ext(dest))...)
	return append(args, dest)
}

func codecArgs(ext string) []string {
	switch strings.ToLower(ext) {
	case ".wav":
		return []string{"-c:a", "pcm_s16le"}
	case ".flac":
		return []string{"-c:a", "flac"}
	case ".ogg", ".opus":
		return []string{"-c:a", "libopus", "-b:a", "48k"}
	case ".m4a", ".aac":
		return []string{"-c:a", "aac", "-b:a", "96k"}
	default:
		return []string{"-c:a", "libmp3lame", "-q:a", "4"}
	}
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s: exit %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(string(output)))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
