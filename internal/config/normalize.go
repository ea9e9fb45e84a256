package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	if err := c.normalizeRecognition(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.input_dir", &c.Paths.InputDir, defaultInputDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.archive_path", &c.Paths.ArchivePath, defaultArchivePath},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.cache_dir", &c.Paths.CacheDir, defaultCacheDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	c.Media.AudioFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Media.AudioFormat)), ".")
	if c.Media.AudioFormat == "" {
		c.Media.AudioFormat = defaultAudioFormat
	}
	exts := make([]string, 0, len(c.Media.AllowedExtensions))
	seen := make(map[string]struct{}, len(c.Media.AllowedExtensions))
	for _, ext := range c.Media.AllowedExtensions {
		normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultAllowedExtensions...)
	}
	c.Media.AllowedExtensions = exts
	if c.Media.MinFreeMiB < 0 {
		c.Media.MinFreeMiB = 0
	}
}

func (c *Config) normalizeRecognition() error {
	c.Recognition.Engine = strings.ToLower(strings.TrimSpace(c.Recognition.Engine))
	if c.Recognition.Engine == "" {
		c.Recognition.Engine = defaultEngine
	}
	c.Recognition.DefaultTier = strings.TrimSpace(c.Recognition.DefaultTier)
	if c.Recognition.DefaultTier == "" {
		c.Recognition.DefaultTier = defaultTier
	}
	c.Recognition.DefaultLanguage = strings.TrimSpace(c.Recognition.DefaultLanguage)
	if c.Recognition.DefaultLanguage == "" {
		c.Recognition.DefaultLanguage = defaultLanguage
	}
	c.Recognition.VADMethod = strings.ToLower(strings.TrimSpace(c.Recognition.VADMethod))
	if c.Recognition.VADMethod == "" {
		c.Recognition.VADMethod = defaultVADMethod
	}
	c.Recognition.HFToken = strings.TrimSpace(c.Recognition.HFToken)
	if c.Recognition.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Recognition.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Recognition.HFToken = strings.TrimSpace(value)
		}
	}
	c.Recognition.UVXBinary = strings.TrimSpace(c.Recognition.UVXBinary)
	if c.Recognition.UVXBinary == "" {
		c.Recognition.UVXBinary = defaultUVXBinary
	}
	c.Recognition.WhisperCppBinary = strings.TrimSpace(c.Recognition.WhisperCppBinary)
	if c.Recognition.WhisperCppBinary == "" {
		c.Recognition.WhisperCppBinary = defaultWhisperCppBinary
	}
	if strings.TrimSpace(c.Recognition.WhisperCppModelsDir) == "" {
		c.Recognition.WhisperCppModelsDir = defaultWhisperCppModelsDir
	}
	var err error
	if c.Recognition.WhisperCppModelsDir, err = expandPath(strings.TrimSpace(c.Recognition.WhisperCppModelsDir)); err != nil {
		return fmt.Errorf("recognition.whispercpp_models_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
