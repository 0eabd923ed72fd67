package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gale8/internal/catalog"
	"gale8/internal/detection"
	"gale8/internal/logging"
	"gale8/internal/services"
)

type detectRow struct {
	Key     string           `json:"key"`
	Result  detection.Result `json:"result"`
	Catalog string           `json:"catalog,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var summary bool
	var skipCatalog bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "detect <recording>...",
		Short: "Detect forecast cues in archived recordings",
		Long: `Detect decodes each recording, spots the trigger keywords and publishes
the cues and transcript next to the archive. Arguments are file names under
the archive prefix or full object keys. Recordings whose cues contain a start
marker are added to the catalog unless --skip-catalog is given.`,
		Args: cobra.MinimumNArgs(1),
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
			store, err := ctx.openStore(runCtx)
			if err != nil {
				return err
			}
			env, err := ctx.openDetection(store, true)
			if err != nil {
				return err
			}
			defer env.close()

			outcomes, runErr := env.runner.Run(runCtx, args)

			var cataloger *catalog.Cataloger
			if !skipCatalog {
				cataloger = catalog.NewCataloger(ctx.catalogStore(store), cfg.Catalog.BroadcastTimes, logger)
			}
			rows := make([]detectRow, 0, len(outcomes))
			failed := 0
			for _, outcome := range outcomes {
				row := detectRow{Key: outcome.Key, Result: outcome.Result}
				if outcome.Err != nil && outcome.Result.Length == 0 {
					row.Error = outcome.Err.Error()
					failed++
					rows = append(rows, row)
					continue
				}
				if outcome.Err != nil {
					row.Error = outcome.Err.Error()
				}
				if cataloger != nil && runErr == nil {
					_, err := cataloger.Consider(runCtx, outcome.Result.File, outcome.Result.Cues)
					switch {
					case err == nil:
						row.Catalog = "added"
					case errors.Is(err, services.ErrMalformedInput):
						row.Catalog = "skipped"
					default:
						logging.WarnWithContext(logger, "catalog update failed", "catalog_update_failed",
							logging.String(logging.FieldRecording, outcome.Result.File),
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "run gale8 catalog add once the store is reachable"),
							logging.String(logging.FieldImpact, "recording is missing from the catalog"),
						)
						row.Catalog = "failed"
					}
				}
				rows = append(rows, row)
			}

			switch {
			case jsonOutput:
				if err := writeJSON(cmd, rows); err != nil {
					return err
				}
			case summary:
				out := cmd.OutOrStdout()
				for _, row := range rows {
					if row.Error != "" && row.Result.Length == 0 {
						fmt.Fprintf(out, "%s: %s\n", row.Key, row.Error)
						continue
					}
					fmt.Fprintln(out, row.Result.Summary())
				}
			default:
				fmt.Fprint(cmd.OutOrStdout(), renderDetectTable(rows))
				fmt.Fprintln(cmd.OutOrStdout())
			}

			if runErr != nil {
				return runErr
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d recordings failed", failed, len(rows))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Print shipping and forecast cues plus length per recording")
	cmd.Flags().BoolVar(&skipCatalog, "skip-catalog", false, "Do not add detected recordings to the catalog")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func renderDetectTable(rows []detectRow) string {
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		status := row.Catalog
		if row.Error != "" {
			status = row.Error
		}
		tableRows = append(tableRows, []string{
			row.Result.File,
			formatSeconds(row.Result.Length),
			joinSeconds(row.Result.Cues["shipping"]),
			joinSeconds(row.Result.Cues["forecast"]),
			strings.Join(row.Result.Cues.Keywords(), ","),
			status,
		})
	}
	return renderTable(
		[]string{"Recording", "Length", "Shipping", "Forecast", "Keywords", "Status"},
		tableRows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
