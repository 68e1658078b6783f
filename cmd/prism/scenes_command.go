package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newScenesCommand(ctx *commandContext) *cobra.Command {
	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "Persisted scene selections",
	}

	scenesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached scene selections, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.scenes()
			if err != nil {
				return err
			}
			selections, err := cache.List()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(selections))
			for _, s := range selections {
				created := time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04")
				rows = append(rows, []string{s.SongID, s.Mood, strings.Join(s.AssetIDs, ", "), created})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Song", "Mood", "Assets", "Created"}, rows))
			return nil
		},
	})

	scenesCmd.AddCommand(&cobra.Command{
		Use:   "show <song-id>",
		Short: "Show one cached selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.scenes()
			if err != nil {
				return err
			}
			selection, ok, err := cache.Load(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no cached selection for %q", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Song:    %s\n", selection.SongID)
			fmt.Fprintf(out, "Mood:    %s\n", selection.Mood)
			fmt.Fprintf(out, "Assets:  %s\n", strings.Join(selection.AssetIDs, ", "))
			fmt.Fprintf(out, "Created: %s\n", time.UnixMilli(selection.CreatedAt).Format(time.RFC1123))
			return nil
		},
	})

	var clearAll bool
	clearCmd := &cobra.Command{
		Use:   "clear [song-id]",
		Short: "Remove cached selections",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.scenes()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if clearAll {
				removed, err := cache.Clear()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d cached selections\n", removed)
				return nil
			}
			if len(args) != 1 {
				return errors.New("name a song id or pass --all")
			}
			if err := cache.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed cached selection for %s\n", args[0])
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Remove every cached selection")
	scenesCmd.AddCommand(clearCmd)

	return scenesCmd
}
