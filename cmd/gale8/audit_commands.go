package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gale8/internal/audit"
	"gale8/internal/cuestore"
	"gale8/internal/detection"
)

type auditFlags struct {
	since      time.Duration
	cached     bool
	jsonOutput bool
}

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Report recordings that need attention",
	}

	auditCmd.AddCommand(newAuditReportCommand(ctx, "short",
		"List recordings no longer than half their broadcast slot", audit.ShortRecordings))
	auditCmd.AddCommand(newAuditReportCommand(ctx, "missing-cues",
		"List recordings in which no station or forecast keyword was heard", audit.MissingCues))

	return auditCmd
}

func newAuditReportCommand(ctx *commandContext, use, short string, report func([]detection.Result) []audit.Finding) *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := loadAuditResults(cmd, ctx, flags)
			if err != nil {
				return err
			}
			findings := report(results)
			if flags.jsonOutput {
				if findings == nil {
					findings = []audit.Finding{}
				}
				return writeJSON(cmd, findings)
			}
			out := cmd.OutOrStdout()
			if len(findings) == 0 {
				fmt.Fprintf(out, "No findings in %d recordings\n", len(results))
				return nil
			}
			rows := make([][]string, 0, len(findings))
			for _, f := range findings {
				rows = append(rows, []string{
					f.File,
					formatSeconds(f.Length),
					formatSeconds(f.Expected),
					strings.Join(f.Keywords, ","),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Recording", "Length", "Expected", "Keywords"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d of %d recordings flagged\n", len(findings), len(results))
			return nil
		},
	}

	cmd.Flags().DurationVar(&flags.since, "since", 0, "Only audit cue files published within this window (e.g. 168h)")
	cmd.Flags().BoolVar(&flags.cached, "cached", false, "Audit the local cue cache instead of the store")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print findings as JSON")
	return cmd
}

func loadAuditResults(cmd *cobra.Command, ctx *commandContext, flags auditFlags) ([]detection.Result, error) {
	runCtx := ctx.runContext(cmd)
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}

	if flags.cached {
		cache, err := cuestore.OpenFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
		return cache.List(runCtx)
	}

	store, err := ctx.openStore(runCtx)
	if err != nil {
		return nil, err
	}
	opts := audit.LoadOptions{}
	if flags.since > 0 {
		opts.Since = time.Now().Add(-flags.since)
	}
	return audit.Load(runCtx, store, cfg.Storage.CuePrefix, opts, logger)
}
