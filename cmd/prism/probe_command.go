package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the model endpoint is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.modelClient()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(cmd.OutOrStdout())
			if err := client.Probe(cmd.Context()); err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", colorize("FAIL", ansiRed, color), cfg.Model.BaseURL, err)
				return fmt.Errorf("model endpoint unreachable")
			}
			fmt.Fprintf(out, "%s %s (model %s)\n", colorize("OK", ansiGreen, color), cfg.Model.BaseURL, cfg.Model.Name)
			return nil
		},
	}
}
