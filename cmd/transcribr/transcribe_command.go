package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"transcribr/internal/config"
	"transcribr/internal/jobs"
	"transcribr/internal/language"
	"transcribr/internal/preflight"
	"transcribr/internal/services"
	"transcribr/internal/services/whispercpp"
	"transcribr/internal/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var languageFlag string
	var tierFlag string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "transcribe FILE...",
		Short: "Convert media files and write SRT captions to the output directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			req, err := buildRequest(cfg, languageFlag, tierFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if !skipPreflight {
				modelFile := ""
				if cfg.Recognition.Engine == config.EngineWhisperCpp {
					modelFile = whispercpp.ModelPath(cfg.Recognition.WhisperCppModelsDir, req.Tier)
				}
				results := preflight.RunAll(cmd.Context(), cfg, modelFile)
				for _, r := range results {
					if r.Warning {
						fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine(r.Name, statusWarn, r.Detail, false))
					}
				}
				if summary := preflight.Summary(results); summary != "" {
					return services.Wrap(services.ErrConfiguration, "preflight", "", summary, nil)
				}
			}

			uploads, closeAll, err := openUploads(args)
			if err != nil {
				return err
			}
			defer closeAll()

			engine := transcribe.NewEngine(ctx.backends.loader(cfg, logger), logger)
			processor := jobs.NewProcessor(cfg, ctx.backends.converter(cfg), engine, logger)
			manager := ctx.archiveManager(cfg, logger)
			runner := jobs.NewRunner(processor, manager, cfg.LockPath(), logger)

			fmt.Fprintf(out, "Transcribing %d file(s): language %s, quality %s\n", len(uploads), language.DisplayName(req.Language), req.Tier.Label())
			outcomes, runErr := runner.Run(cmd.Context(), uploads, req, func(p jobs.Progress) {
				printOutcome(out, p, colorize)
			})
			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(out, "Bundle: %s\n", manager.BundlePath())
			failed := 0
			for _, o := range outcomes {
				if o.Failed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d job(s) failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Spoken language name or code, or Auto to detect (default from config)")
	cmd.Flags().StringVarP(&tierFlag, "tier", "t", "", "Quality tier: tiny, low, medium or highest (default from config)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and dependency checks")
	return cmd
}

func buildRequest(cfg *config.Config, languageFlag, tierFlag string) (jobs.Request, error) {
	tierValue := strings.TrimSpace(tierFlag)
	if tierValue == "" {
		tierValue = cfg.Recognition.DefaultTier
	}
	tier, err := transcribe.ParseTier(tierValue)
	if err != nil {
		return jobs.Request{}, err
	}

	lang := strings.TrimSpace(languageFlag)
	if lang == "" {
		lang = cfg.Recognition.DefaultLanguage
	}
	if transcribe.IsAuto(lang) || strings.EqualFold(lang, transcribe.AutoDetect) {
		lang = transcribe.AutoDetect
	} else if !language.Supported(lang) {
		return jobs.Request{}, services.Wrap(services.ErrUnsupportedLanguage, "transcribe", "language",
			fmt.Sprintf("%q is not supported (see `transcribr languages`)", lang), nil)
	}
	return jobs.Request{Language: lang, Tier: tier}, nil
}

func openUploads(paths []string) ([]jobs.Upload, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]jobs.Upload, 0, len(paths))
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, services.Wrap(services.ErrInvalidInput, "transcribe", "open", path, err)
		}
		info, err := file.Stat()
		if err != nil || info.IsDir() {
			_ = file.Close()
			closeAll()
			if err == nil {
				err = errors.New("is a directory")
			}
			return nil, nil, services.Wrap(services.ErrInvalidInput, "transcribe", "open", path, err)
		}
		files = append(files, file)
		uploads = append(uploads, jobs.Upload{Filename: filepath.Base(path), Body: file})
	}
	return uploads, closeAll, nil
}

func printOutcome(out io.Writer, p jobs.Progress, colorize bool) {
	result := p.Outcome.Result
	if err := p.Outcome.Err; err != nil {
		fmt.Fprintln(out, jobLine(p.Done, p.Total, result.Filename, statusError, err.Error(), colorize))
		return
	}
	summary := fmt.Sprintf("%s (%.1f MB) %s / %s", result.Filename, result.SizeMB, language.DisplayName(result.Language), result.Tier.Label())
	if result.NoCaptions {
		fmt.Fprintln(out, jobLine(p.Done, p.Total, result.Stem, statusWarn, summary+": No subtitles found.", colorize))
		return
	}
	fmt.Fprintln(out, jobLine(p.Done, p.Total, result.Stem, statusOK, fmt.Sprintf("%s: %d caption(s) -> %s", summary, result.Segments, result.CaptionPath), colorize))
}
