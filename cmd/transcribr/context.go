package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"transcribr/internal/archive"
	"transcribr/internal/config"
	"transcribr/internal/history"
	"transcribr/internal/jobs"
	"transcribr/internal/logging"
	"transcribr/internal/media/ffmpeg"
	"transcribr/internal/media/ffprobe"
	"transcribr/internal/services/whispercpp"
	"transcribr/internal/services/whisperx"
	"transcribr/internal/transcribe"
)

// backends builds the external collaborators; tests substitute stubs.
type backends struct {
	loader    func(cfg *config.Config, logger *slog.Logger) transcribe.Loader
	converter func(cfg *config.Config) jobs.Converter
	prober    func(cfg *config.Config) history.DurationProber
	copyText  func(text string) error
}

func defaultBackends() backends {
	return backends{
		loader: func(cfg *config.Config, logger *slog.Logger) transcribe.Loader {
			if cfg.Recognition.Engine == config.EngineWhisperCpp {
				return whispercpp.NewLoader(whispercpp.Config{
					Binary:    cfg.Recognition.WhisperCppBinary,
					ModelsDir: cfg.Recognition.WhisperCppModelsDir,
				}, logger)
			}
			return whisperx.NewLoader(whisperx.Config{
				Binary:      cfg.Recognition.UVXBinary,
				CUDAEnabled: cfg.Recognition.CUDAEnabled,
				VADMethod:   cfg.Recognition.VADMethod,
				HFToken:     cfg.Recognition.HFToken,
			}, logger)
		},
		converter: func(cfg *config.Config) jobs.Converter {
			return ffmpeg.NewConverter(cfg.Media.FFmpegBinary)
		},
		prober: func(cfg *config.Config) history.DurationProber {
			return ffprobe.NewProber(cfg.Media.FFprobeBinary)
		},
		copyText: clipboard.WriteAll,
	}
}

type commandContext struct {
	configFlag *string
	verbose    *bool
	backends   backends

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verbose *bool, b backends) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		backends:   b,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the logger once; console is where log records are echoed.
func (c *commandContext) ensureLogger(console io.Writer) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, console)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) archiveManager(cfg *config.Config, logger *slog.Logger) *archive.Manager {
	return archive.NewManager(cfg.Paths.OutputDir, cfg.Paths.ArchivePath, logger, cfg.LockPath())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
