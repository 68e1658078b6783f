package main

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	var bindAddr string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print incoming OSC traffic",
		Long: "Binds the feed address and prints every message as it arrives. " +
			"Stop prismd first, or pass --bind to listen on a different port.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bind := strings.TrimSpace(bindAddr)
			if bind == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				bind = cfg.OSC.Bind
			}

			conn, err := net.ListenPacket("udp", bind)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", bind, err)
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Listening on %s (Ctrl-C to stop)\n", conn.LocalAddr())

			go func() {
				<-cmd.Context().Done()
				_ = conn.Close()
			}()

			buf := make([]byte, 65507)
			for {
				n, sender, err := conn.ReadFrom(buf)
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return fmt.Errorf("receive: %w", err)
				}
				packet, err := osc.ParsePacket(string(buf[:n]))
				if err != nil {
					fmt.Fprintf(out, "%s  %s  <unparseable: %v>\n",
						time.Now().Format("15:04:05.000"), sender, err)
					continue
				}
				printPacket(out, packet, sender.String())
			}
		},
	}

	cmd.Flags().StringVar(&bindAddr, "bind", "", "UDP address to listen on (defaults to osc.bind)")
	return cmd
}

func printPacket(out io.Writer, packet osc.Packet, sender string) {
	switch p := packet.(type) {
	case *osc.Message:
		args := make([]string, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			args = append(args, fmt.Sprintf("%v", a))
		}
		fmt.Fprintf(out, "%s  %s  %s %s\n",
			time.Now().Format("15:04:05.000"), sender, p.Address, strings.Join(args, " "))
	case *osc.Bundle:
		for _, message := range p.Messages {
			printPacket(out, message, sender)
		}
		for _, bundle := range p.Bundles {
			printPacket(out, bundle, sender)
		}
	}
}
