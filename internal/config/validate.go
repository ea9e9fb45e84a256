package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.input_dir and paths.output_dir must differ")
	}
	if strings.TrimSpace(c.Paths.ArchivePath) == "" {
		return errors.New("paths.archive_path must be set")
	}
	if strings.ToLower(filepath.Ext(c.Paths.ArchivePath)) != ".zip" {
		return fmt.Errorf("paths.archive_path must end in .zip, got %q", c.Paths.ArchivePath)
	}
	return nil
}

func (c *Config) validateMedia() error {
	format := c.Media.AudioFormat
	if strings.ContainsAny(format, `/\. `) {
		return fmt.Errorf("media.audio_format %q must be a bare extension such as mp3", format)
	}
	if format == "srt" {
		return errors.New("media.audio_format cannot be srt")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	switch c.Recognition.Engine {
	case EngineWhisperX, EngineWhisperCpp:
	default:
		return fmt.Errorf("recognition.engine must be %q or %q, got %q", EngineWhisperX, EngineWhisperCpp, c.Recognition.Engine)
	}
	switch c.Recognition.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("recognition.vad_method must be silero or pyannote, got %q", c.Recognition.VADMethod)
	}
	if c.Recognition.VADMethod == "pyannote" && c.Recognition.HFToken == "" {
		return errors.New("recognition.hf_token must be set when recognition.vad_method is pyannote (or export HF_TOKEN)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}
