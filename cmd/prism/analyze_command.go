package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var redo bool

	cmd := &cobra.Command{
		Use:   "analyze [asset...]",
		Short: "Analyze visual assets with the model",
		Long: "Runs one model call per asset to derive its trait summary. " +
			"Summaries improve scene selection prompts; assets without one fall back to filename tags.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("name assets to analyze or pass --all")
			}

			d, analyses, err := ctx.director()
			if err != nil {
				return err
			}
			defer analyses.Close()

			out := cmd.OutOrStdout()
			if !d.CheckAvailability(cmd.Context()) {
				return errors.New("model endpoint is unreachable; is LM Studio running?")
			}

			if all {
				analyzed, failed := d.AnalyzeMissing(cmd.Context(), redo)
				fmt.Fprintf(out, "Analyzed %d assets (%d failed)\n", analyzed, failed)
				return nil
			}

			catalogue, err := ctx.catalogue()
			if err != nil {
				return err
			}
			var failures int
			for _, name := range args {
				asset, ok := catalogue.Find(name)
				if !ok {
					fmt.Fprintf(out, "%s: not in catalogue\n", name)
					failures++
					continue
				}
				if !redo {
					if _, ok := analyses.Get(asset.Name); ok {
						fmt.Fprintf(out, "%s: already analyzed (use --redo)\n", name)
						continue
					}
				}
				if err := d.AnalyzeAsset(cmd.Context(), asset); err != nil {
					fmt.Fprintf(out, "%s: %v\n", name, err)
					failures++
					continue
				}
				analysis, _ := analyses.Get(asset.Name)
				fmt.Fprintf(out, "%s: %s\n", name, analysis.Summary())
			}
			if failures > 0 {
				return fmt.Errorf("%d assets failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Analyze every asset without a stored analysis")
	cmd.Flags().BoolVar(&redo, "redo", false, "Re-analyze assets that already have one")
	return cmd
}
