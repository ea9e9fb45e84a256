package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"transcribr/internal/jobs"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the bundle of all outputs",
	}
	archiveCmd.AddCommand(newArchiveRebuildCommand(ctx))
	archiveCmd.AddCommand(newArchiveListCommand(ctx))
	return archiveCmd
}

func newArchiveRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the bundle from the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			lock, err := jobs.AcquireOutputLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			manager := ctx.archiveManager(cfg, logger)
			path, err := manager.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			names, err := manager.Contents(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bundle rebuilt: %s (%d file(s))\n", path, len(names))
			return nil
		},
	}
}

func newArchiveListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the files in the current bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			names, err := ctx.archiveManager(cfg, logger).Contents(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
