package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"transcribr/internal/config"
	"transcribr/internal/deps"
	"transcribr/internal/preflight"
	"transcribr/internal/services/whispercpp"
	"transcribr/internal/transcribe"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, status := range statuses {
				kind := statusOK
				detail := status.Path
				switch {
				case status.Available:
				case status.Optional:
					kind, detail = statusWarn, status.Detail
				default:
					kind, detail = statusError, status.Detail
				}
				if status.Description != "" {
					detail = fmt.Sprintf("%s (%s)", detail, status.Description)
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				fmt.Fprintln(out, renderStatusLine("Summary", statusError, fmt.Sprintf("%d required tool(s) missing", len(missing)), colorize))
			}

			modelFile := ""
			tier, tierErr := transcribe.ParseTier(cfg.Recognition.DefaultTier)
			if tierErr == nil && cfg.Recognition.Engine == config.EngineWhisperCpp {
				modelFile = whispercpp.ModelPath(cfg.Recognition.WhisperCppModelsDir, tier)
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, modelFile)
			for _, r := range results {
				kind := statusOK
				switch {
				case !r.Passed:
					kind = statusError
				case r.Warning:
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if tierErr != nil {
				fmt.Fprintln(out, renderStatusLine("Default tier", statusError, tierErr.Error(), colorize))
				return tierErr
			}
			if summary := preflight.Summary(results); summary != "" {
				return fmt.Errorf("%s", summary)
			}
			return nil
		},
	}
}
