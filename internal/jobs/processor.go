package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"transcribr/internal/captions"
	"transcribr/internal/config"
	"transcribr/internal/fileutil"
	"transcribr/internal/logging"
	"transcribr/internal/services"
	"transcribr/internal/transcribe"
)

// Upload is one submitted file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Request carries the batch-wide recognition settings.
type Request struct {
	// Language is a language name, code, or transcribe.AutoDetect.
	Language string
	Tier     transcribe.Tier
}

// Result describes a completed job.
type Result struct {
	Filename    string
	Stem        string
	SizeMB      float64
	Language    string
	Tier        transcribe.Tier
	AudioPath   string
	CaptionPath string
	CaptionText string
	Segments    int
	// NoCaptions is set when recognition produced no segments; no caption
	// file exists for the job.
	NoCaptions bool
}

// Converter transcodes a media file into the intermediate audio format.
type Converter interface {
	Convert(ctx context.Context, src, dest string) error
}

// Recognizer grants exclusive use of a loaded model for a tier.
type Recognizer interface {
	Use(ctx context.Context, tier transcribe.Tier, fn func(transcribe.Model) error) error
}

// Processor runs single uploads through the pipeline.
type Processor struct {
	cfg        *config.Config
	converter  Converter
	recognizer Recognizer
	logger     *slog.Logger

	// OnStage, when set, is called after each stage transition.
	OnStage func(ctx context.Context, filename string, stage Stage)
}

// NewProcessor wires a processor to its collaborators.
func NewProcessor(cfg *config.Config, converter Converter, recognizer Recognizer, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		converter:  converter,
		recognizer: recognizer,
		logger:     logging.NewComponentLogger(logger, "processor"),
	}
}

// Stem returns name without its final extension. A leading-dot name without a
// further extension, such as ".env", is returned unchanged.
func Stem(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// SizeMB converts a byte count to megabytes rounded to one decimal place.
func SizeMB(bytes int64) float64 {
	return math.Round(float64(bytes)/1_000_000*10) / 10
}

// Process runs upload to completion or returns a *StageError.
func (p *Processor) Process(ctx context.Context, upload Upload, req Request) (Result, error) {
	filename := filepath.Base(strings.TrimSpace(upload.Filename))
	if req.Tier == "" {
		req.Tier = transcribe.DefaultTier
	}
	ctx = services.WithJob(ctx, filename)
	logger := logging.WithContext(ctx, p.logger)

	result := Result{
		Filename: filename,
		Language: req.Language,
		Tier:     req.Tier,
	}
	if err := p.validate(upload, filename); err != nil {
		return result, stageFailure(StageReceived, err)
	}
	result.Stem = Stem(filename)
	p.emit(ctx, filename, StageReceived)

	inputPath := filepath.Join(p.cfg.Paths.InputDir, filename)
	written, err := fileutil.WriteReaderAtomic(inputPath, upload.Body, 0o644)
	if err != nil {
		return result, stageFailure(StageInputPersisted, services.Wrap(services.ErrPersist, string(StageInputPersisted), "write upload", filename, err))
	}
	result.SizeMB = SizeMB(written)
	p.emit(ctx, filename, StageInputPersisted)
	logger.Info("upload persisted",
		logging.String("path", inputPath),
		logging.Int64("bytes", written),
	)

	// A rerun invalidates the previous caption even if it fails later on.
	captionPath := filepath.Join(p.cfg.Paths.OutputDir, result.Stem+captions.Extension)
	if err := fileutil.RemoveIfExists(captionPath); err != nil {
		return result, stageFailure(StageInputPersisted, services.Wrap(services.ErrPersist, string(StageInputPersisted), "remove stale captions", filepath.Base(captionPath), err))
	}

	result.AudioPath = filepath.Join(p.cfg.Paths.OutputDir, result.Stem+p.cfg.AudioExtension())
	if err := p.converter.Convert(services.WithStage(ctx, string(StageConverted)), inputPath, result.AudioPath); err != nil {
		return result, stageFailure(StageConverted, ensureKind(err, services.ErrConversion, StageConverted))
	}
	p.emit(ctx, filename, StageConverted)

	var segments []captions.Segment
	err = p.recognizer.Use(ctx, req.Tier, func(model transcribe.Model) error {
		var runErr error
		segments, runErr = transcribe.Transcribe(services.WithStage(ctx, string(StageTranscribed)), model, req.Language, result.AudioPath)
		return runErr
	})
	if err != nil {
		return result, stageFailure(StageTranscribed, ensureKind(err, services.ErrRecognition, StageTranscribed))
	}
	result.Segments = len(segments)
	p.emit(ctx, filename, StageTranscribed)

	if len(segments) == 0 {
		result.NoCaptions = true
		p.emit(ctx, filename, StageComplete)
		logger.Info("no speech recognized", logging.String(logging.FieldEventType, "no_captions"))
		return result, nil
	}

	body, err := captions.Serialize(segments)
	if err != nil {
		return result, stageFailure(StageSerialized, ensureKind(err, services.ErrSerialization, StageSerialized))
	}
	result.CaptionText = body
	p.emit(ctx, filename, StageSerialized)

	if err := fileutil.WriteFileAtomic(captionPath, []byte(body), 0o644); err != nil {
		return result, stageFailure(StageOutputPersisted, services.Wrap(services.ErrPersist, string(StageOutputPersisted), "write captions", filepath.Base(captionPath), err))
	}
	result.CaptionPath = captionPath
	p.emit(ctx, filename, StageOutputPersisted)

	p.emit(ctx, filename, StageComplete)
	logger.Info("captions written",
		logging.String("path", captionPath),
		logging.Int("segments", result.Segments),
	)
	return result, nil
}

func (p *Processor) validate(upload Upload, filename string) error {
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return services.Wrap(services.ErrInvalidInput, string(StageReceived), "validate", "filename is required", nil)
	}
	if upload.Body == nil {
		return services.Wrap(services.ErrInvalidInput, string(StageReceived), "validate", filename+" has no content", nil)
	}
	if !p.cfg.IsAllowedUpload(filename) {
		return services.Wrap(services.ErrInvalidInput, string(StageReceived), "validate",
			fmt.Sprintf("%s: unsupported file type (allowed: %s)", filename, strings.Join(p.cfg.Media.AllowedExtensions, ", ")), nil)
	}
	return nil
}

func (p *Processor) emit(ctx context.Context, filename string, stage Stage) {
	logging.WithContext(ctx, p.logger).Debug("stage reached", logging.String(logging.FieldStage, string(stage)))
	if p.OnStage != nil {
		p.OnStage(ctx, filename, stage)
	}
}

func ensureKind(err error, fallback error, stage Stage) error {
	if services.Kind(err) != nil {
		return err
	}
	return services.Wrap(fallback, string(stage), "", "", err)
}
