package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prism/internal/binding"
)

func newBindingsCommand(ctx *commandContext) *cobra.Command {
	bindingsCmd := &cobra.Command{
		Use:   "bindings",
		Short: "Parameter binding presets",
	}

	bindingsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bindings from the preset file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bindings, err := binding.LoadPreset(cfg.Paths.BindingsFile)
			fromFile := true
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				bindings = binding.DefaultPreset()
				fromFile = false
			}

			rows := make([][]string, 0, len(bindings))
			for _, b := range bindings {
				rows = append(rows, []string{
					b.Param,
					b.Source,
					string(b.Mode),
					fmt.Sprintf("%.2f", b.Multiplier),
					fmt.Sprintf("%.2f", b.Smoothing),
					fmt.Sprintf("[%.2f, %.2f]", b.Min, b.Max),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Param", "Source", "Mode", "Mult", "Smooth", "Range"}, rows))
			if fromFile {
				fmt.Fprintf(out, "From %s\n", cfg.Paths.BindingsFile)
			} else {
				fmt.Fprintln(out, "No preset file; built-in defaults shown (run `prism bindings init`)")
			}
			return nil
		},
	})

	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default binding preset file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Paths.BindingsFile
			if !overwrite {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("preset file already exists at %s (use --overwrite to replace it)", path)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check preset path: %w", err)
				}
			}
			if err := binding.SavePreset(path, binding.DefaultPreset()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default bindings to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing preset file")
	bindingsCmd.AddCommand(initCmd)

	return bindingsCmd
}
