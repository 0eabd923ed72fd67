package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gale8/internal/deps"
	"gale8/internal/logging"
	"gale8/internal/preflight"
	"gale8/internal/storage"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment gale8 runs in",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd)
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var store storage.Store
			if opened, err := ctx.openStore(runCtx); err != nil {
				logging.WarnWithContext(logger, "store could not be opened", "store_unavailable",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the storage section of the config"),
				)
			} else {
				store = opened
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(runCtx, cfg, store)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				if !status.Optional {
					continue
				}
				kind := statusOK
				detail := status.Command
				if !status.Available {
					kind = statusWarn
					detail = status.Detail
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			if resolved, err := deps.ResolveFFmpeg(cfg.FFmpegBinary()); err == nil {
				fmt.Fprintf(out, "\nffmpeg: %s\n", resolved)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}
