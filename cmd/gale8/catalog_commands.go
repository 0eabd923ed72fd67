package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"gale8/internal/catalog"
	"gale8/internal/detection"
	"gale8/internal/services"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and maintain the recording catalog",
	}

	catalogCmd.AddCommand(newCatalogAddCommand(ctx))
	catalogCmd.AddCommand(newCatalogRebuildCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	catalogCmd.AddCommand(newCatalogLastCommand(ctx))

	return catalogCmd
}

func newCatalogAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <recording>...",
		Short: "Add recordings to the catalog",
		Long: `Add appends each recording to the catalog when its broadcast time is
whitelisted. When a cue file has been published for the recording, the
recording is skipped unless it contains a shipping or forecast cue.`,
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
			layout := ctx.layout()
			cataloger := catalog.NewCataloger(ctx.catalogStore(store), cfg.Catalog.BroadcastTimes, logger)

			out := cmd.OutOrStdout()
			skipped := 0
			for _, arg := range args {
				file := path.Base(strings.TrimSpace(arg))
				var cues detection.CueSet
				data, err := store.Get(runCtx, layout.CueKey(file))
				switch {
				case err == nil:
					result, decodeErr := detection.Decode(data)
					if decodeErr != nil {
						return fmt.Errorf("cue file for %s: %w", file, decodeErr)
					}
					cues = result.Cues
				case !errors.Is(err, services.ErrNotFound):
					return err
				}

				rec, err := cataloger.Consider(runCtx, file, cues)
				if err != nil {
					if errors.Is(err, services.ErrMalformedInput) {
						fmt.Fprintf(out, "Skipped %s: %v\n", file, err)
						skipped++
						continue
					}
					return err
				}
				fmt.Fprintf(out, "Added %s (%s)\n", rec.FileName(), rec.Label())
			}
			if skipped == len(args) {
				return fmt.Errorf("no recordings added")
			}
			return nil
		},
	}
}

func newCatalogRebuildCommand(ctx *commandContext) *cobra.Command {
	var excludePath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the catalog from the recordings in the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd)
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(runCtx)
			if err != nil {
				return err
			}
			exclude, err := readExcludeList(excludePath)
			if err != nil {
				return err
			}

			cat, rejected, err := ctx.catalogStore(store).Rebuild(runCtx, catalog.RebuildOptions{
				Prefix:         cfg.Storage.ArchivePrefix,
				BroadcastTimes: cfg.Catalog.BroadcastTimes,
				Exclude:        exclude,
				DryRun:         dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range rejected {
				fmt.Fprintf(out, "Rejected %s (%s)\n", r.Key, r.Reason)
			}
			if dryRun {
				data, err := cat.MarshalJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				fmt.Fprintf(out, "Dry run: %d recordings would be cataloged\n", cat.Len())
				return nil
			}
			fmt.Fprintf(out, "Catalog rebuilt with %d recordings\n", cat.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&excludePath, "exclude", "", "File listing object keys to leave out, one per line")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the rebuilt catalog without saving it")
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cataloged recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd)
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			store, err := ctx.openStore(runCtx)
			if err != nil {
				return err
			}
			cat, err := ctx.catalogStore(store).Load(runCtx)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := cat.MarshalJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			recordings := cat.Recordings()
			if len(recordings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(recordings))
			for _, rec := range recordings {
				rows = append(rows, []string{rec.FileName(), rec.Label()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Recording", "Broadcast"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog document")
	return cmd
}

func newCatalogLastCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the most recent cataloged recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd)
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			store, err := ctx.openStore(runCtx)
			if err != nil {
				return err
			}
			cat, err := ctx.catalogStore(store).Load(runCtx)
			if err != nil {
				return err
			}
			rec, err := cat.Last()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.FileName())
			return nil
		},
	}
}

func readExcludeList(path string) (map[string]bool, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exclude list: %w", err)
	}
	defer file.Close()

	exclude := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exclude[line] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read exclude list: %w", err)
	}
	return exclude, nil
}
