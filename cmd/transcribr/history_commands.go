package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"transcribr/internal/captions"
	"transcribr/internal/config"
	"transcribr/internal/fileutil"
	"transcribr/internal/history"
	"transcribr/internal/jobs"
	"transcribr/internal/logging"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously transcribed files",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

// openIndex builds the history index. The probe cache is optional; when it
// cannot be opened durations are probed on every listing.
func (c *commandContext) openIndex(cfg *config.Config, logger *slog.Logger) (*history.FSIndex, func()) {
	cache, err := history.OpenProbeCache(cfg.ProbeCachePath())
	if err != nil {
		logging.WarnWithContext(logger, "probe cache unavailable", "probe_cache_unavailable",
			logging.String("path", cfg.ProbeCachePath()),
			logging.Error(err),
		)
		cache = nil
	}
	index := history.NewFSIndex(cfg.Paths.OutputDir, cfg.AudioExtension(), c.backends.prober(cfg), cache, logger)
	return index, func() {
		if cache != nil {
			_ = cache.Close()
		}
	}
}

// refreshBundle rebuilds the bundle so it matches the output directory being
// listed. A batch holding the lock rebuilds the bundle itself, so a busy lock
// only skips the refresh.
func (c *commandContext) refreshBundle(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	lock, err := jobs.AcquireOutputLock(cfg.LockPath())
	if errors.Is(err, jobs.ErrBusy) {
		logging.WarnWithContext(logger, "bundle refresh skipped while a batch is running", "bundle_refresh_skipped")
		return nil
	}
	if err != nil {
		return err
	}
	defer lock.Release()
	_, err = c.archiveManager(cfg, logger).Rebuild(ctx)
	return err
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List converted files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := ctx.refreshBundle(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			index, closeIndex := ctx.openIndex(cfg, logger)
			defer closeIndex()

			entries, err := index.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No files in %s\n", cfg.Paths.OutputDir)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Name,
					e.Date,
					e.DisplayDuration,
					humanize.Bytes(uint64(e.SizeBytes)),
					yesNo(e.HasCaptions),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Date", "Duration", "Size", "Captions"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var copyFlag bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print the captions of a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			index, closeIndex := ctx.openIndex(cfg, logger)
			defer closeIndex()

			body, err := index.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if strings.TrimSpace(outPath) == "" && !copyFlag {
				fmt.Fprint(out, body)
				return nil
			}

			cues := "unknown"
			if entries, err := captions.Parse(body); err == nil {
				cues = fmt.Sprintf("%d", len(entries))
			}
			if target := strings.TrimSpace(outPath); target != "" {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				if info, err := os.Stat(expanded); err == nil && info.IsDir() {
					expanded = filepath.Join(expanded, filepath.Base(index.CaptionPath(args[0])))
				}
				if err := fileutil.WriteFileAtomic(expanded, []byte(body), 0o644); err != nil {
					return fmt.Errorf("write captions: %w", err)
				}
				fmt.Fprintf(out, "Wrote %s cue(s) to %s\n", cues, expanded)
			}
			if copyFlag {
				if err := ctx.backends.copyText(body); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintf(out, "Copied %s cue(s) to the clipboard\n", cues)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the captions to the clipboard")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the captions to a file or directory")
	return cmd
}
