package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"prism/internal/oschub"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Visual asset catalogue",
	}

	assetsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalogued visual assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := ctx.catalogue()
			if err != nil {
				return err
			}
			analyses, err := ctx.analyses()
			if err != nil {
				return err
			}
			defer analyses.Close()

			rows := make([][]string, 0)
			for _, asset := range catalogue.Assets() {
				analyzed := "no"
				if analysis, ok := analyses.Get(asset.Name); ok {
					analyzed = analysis.Mood
				}
				rows = append(rows, []string{asset.Name, asset.Kind, asset.TagString(), analyzed})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Name", "Kind", "Tags", "Analyzed"}, rows))
			fmt.Fprintf(out, "%d assets\n", len(rows))
			return nil
		},
	})

	assetsCmd.AddCommand(&cobra.Command{
		Use:   "rescan",
		Short: "Rescan the assets directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalogue, err := ctx.catalogue()
			if err != nil {
				return err
			}
			// ctx.catalogue already ran one scan; run again explicitly so the
			// count reflects the directory as of this command.
			count, err := catalogue.Rescan()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalogued %d assets\n", count)

			// A running prismd holds its own catalogue; nudge it over OSC.
			if err := notifyRescan(cfg.OSC.Bind); err == nil {
				fmt.Fprintln(out, "Rescan signal sent to the engine")
			}
			return nil
		},
	})

	return assetsCmd
}

// notifyRescan fires a /vj/rescan at the engine's bind port. UDP, so a
// missing daemon just drops the datagram.
func notifyRescan(bind string) error {
	host, portStr, err := net.SplitHostPort(bind)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return osc.NewClient(host, port).Send(osc.NewMessage(oschub.AddrRescan))
}
