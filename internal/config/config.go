package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the persisted layout.
type Paths struct {
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
	ArchivePath string `toml:"archive_path"`
	LogDir      string `toml:"log_dir"`
	CacheDir    string `toml:"cache_dir"`
}

// Media contains the external conversion/probe tools and accepted uploads.
type Media struct {
	FFmpegBinary      string   `toml:"ffmpeg_binary"`
	FFprobeBinary     string   `toml:"ffprobe_binary"`
	AudioFormat       string   `toml:"audio_format"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	MinFreeMiB        int      `toml:"min_free_mib"`
}

// Recognition selects and tunes the speech recognition engine.
type Recognition struct {
	Engine          string `toml:"engine"`
	DefaultTier     string `toml:"default_tier"`
	DefaultLanguage string `toml:"default_language"`
	// CUDAEnabled runs WhisperX on the GPU.
	CUDAEnabled bool `toml:"cuda_enabled"`
	// VADMethod selects the WhisperX voice activity detector ("silero" or "pyannote").
	VADMethod string `toml:"vad_method"`
	// HFToken is the Hugging Face token required by pyannote VAD.
	HFToken             string `toml:"hf_token"`
	UVXBinary           string `toml:"uvx_binary"`
	WhisperCppBinary    string `toml:"whispercpp_binary"`
	WhisperCppModelsDir string `toml:"whispercpp_models_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for transcribr.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Media       Media       `toml:"media"`
	Recognition Recognition `toml:"recognition"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/transcribr/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("transcribr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.InputDir, c.Paths.OutputDir, c.Paths.LogDir, c.Paths.CacheDir, filepath.Dir(c.Paths.ArchivePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AudioExtension returns the extension, with leading dot, of converted audio artifacts.
func (c *Config) AudioExtension() string {
	return "." + c.Media.AudioFormat
}

// LockPath returns the lock file guarding the output directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.OutputDir, ".transcribr.lock")
}

// ProbeCachePath returns the sqlite database caching media durations.
func (c *Config) ProbeCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "history.db")
}

// IsAllowedUpload reports whether filename carries one of the accepted extensions.
func (c *Config) IsAllowedUpload(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range c.Media.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
