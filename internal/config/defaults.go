package config

const (
	defaultInputDir            = "~/.local/share/transcribr/input"
	defaultOutputDir           = "~/.local/share/transcribr/output"
	defaultArchivePath         = "~/.local/share/transcribr/all.zip"
	defaultLogDir              = "~/.local/share/transcribr/logs"
	defaultCacheDir            = "~/.cache/transcribr"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultAudioFormat         = "mp3"
	defaultMinFreeMiB          = 512
	defaultEngine              = EngineWhisperX
	defaultTier                = "low"
	defaultLanguage            = "Auto"
	defaultVADMethod           = "silero"
	defaultUVXBinary           = "uvx"
	defaultWhisperCppBinary    = "whisper-cli"
	defaultWhisperCppModelsDir = "~/.local/share/transcribr/models"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Recognition engines.
const (
	EngineWhisperX   = "whisperx"
	EngineWhisperCpp = "whispercpp"
)

var defaultAllowedExtensions = []string{"mkv", "mp4", "avi", "wav", "mp3"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:    defaultInputDir,
			OutputDir:   defaultOutputDir,
			ArchivePath: defaultArchivePath,
			LogDir:      defaultLogDir,
			CacheDir:    defaultCacheDir,
		},
		Media: Media{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			AudioFormat:       defaultAudioFormat,
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			MinFreeMiB:        defaultMinFreeMiB,
		},
		Recognition: Recognition{
			Engine:              defaultEngine,
			DefaultTier:         defaultTier,
			DefaultLanguage:     defaultLanguage,
			VADMethod:           defaultVADMethod,
			UVXBinary:           defaultUVXBinary,
			WhisperCppBinary:    defaultWhisperCppBinary,
			WhisperCppModelsDir: defaultWhisperCppModelsDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
