package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gale8/internal/assembly"
	"gale8/internal/captions"
	"gale8/internal/transcoder"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var lengthSeconds int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a continuous forecast stream from the catalog",
		Long: `Assemble starts with the latest cataloged recording and adds random
recordings until the stream is long enough, then publishes the audio and its
captions to the configured stream and captions keys. Recordings without a
published cue file are detected on the fly when a speech model is available.`,
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
			cat, err := ctx.catalogStore(store).Load(runCtx)
			if err != nil {
				return err
			}
			env, err := ctx.openDetection(store, false)
			if err != nil {
				return err
			}
			defer env.close()

			target := float64(cfg.Assembly.LengthSeconds)
			if lengthSeconds > 0 {
				target = float64(lengthSeconds)
			}
			assembler := assembly.NewAssembler(store, env.runner, transcoder.NewFromConfig(cfg, logger),
				assembly.OptionsFromConfig(cfg), logger)
			asm, err := assembler.Assemble(runCtx, cat, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSegmentTable(asm))
			if dryRun {
				fmt.Fprint(out, string(asm.Captions.Render()))
				return nil
			}
			if err := assembler.Publish(runCtx, asm, cfg.Storage.StreamKey, cfg.Storage.CaptionsKey); err != nil {
				return err
			}
			fmt.Fprintf(out, "Published %s (%s) and %s\n", cfg.Storage.StreamKey,
				captions.FormatTimestamp(asm.Seconds()), cfg.Storage.CaptionsKey)
			return nil
		},
	}

	cmd.Flags().IntVar(&lengthSeconds, "length", 0, "Target stream length in seconds (defaults to assembly.length_seconds)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Assemble and print the captions without publishing")
	return cmd
}

func renderSegmentTable(asm *assembly.Assembly) string {
	rows := make([][]string, 0, len(asm.Segments))
	for _, seg := range asm.Segments {
		rows = append(rows, []string{
			seg.Recording.FileName(),
			captions.FormatTimestamp(seg.Offset),
			formatSeconds(seg.Window.Start),
			formatSeconds(seg.Window.End),
			fmt.Sprintf("%d", seg.Bytes),
		})
	}
	return renderTable(
		[]string{"Recording", "Offset", "Start", "End", "Bytes"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}
