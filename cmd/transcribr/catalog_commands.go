package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"transcribr/internal/language"
	"transcribr/internal/transcribe"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "languages",
		Short:       "List the languages accepted by --language",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (detect)\n", transcribe.AutoDetect)
			for _, name := range language.Names() {
				code, _ := language.Code(name)
				fmt.Fprintf(out, "%s (%s)\n", language.DisplayName(name), code)
			}
			return nil
		},
	}
}

func newTiersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "List quality tiers and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defaultTier, _ := transcribe.ParseTier(cfg.Recognition.DefaultTier)
			rows := make([][]string, 0, len(transcribe.Tiers()))
			for _, tier := range transcribe.Tiers() {
				marker := ""
				if tier == defaultTier {
					marker = "*"
				}
				rows = append(rows, []string{string(tier), tier.Label(), tier.Model(), marker})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Tier", "Label", "Model", "Default"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Engine: %s\n", strings.ToLower(cfg.Recognition.Engine))
			return nil
		},
	}
}
