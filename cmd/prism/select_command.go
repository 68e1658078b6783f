package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prism/internal/songid"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var title string
	var artist string
	var lyricsFile string
	var noModel bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Resolve a scene selection for a song",
		Long: "Runs the same cache/model/fallback selection the daemon runs on a song " +
			"change, without needing prismd or an OSC feed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("--title is required")
			}

			var lyrics string
			if lyricsFile != "" {
				data, err := os.ReadFile(lyricsFile)
				if err != nil {
					return fmt.Errorf("read lyrics file: %w", err)
				}
				lyrics = string(data)
			}

			id := songid.Identity{
				ID:     songid.Derive(title, artist),
				Title:  strings.TrimSpace(title),
				Artist: strings.TrimSpace(artist),
				Lyrics: lyrics,
			}

			d, analyses, err := ctx.director()
			if err != nil {
				return err
			}
			defer analyses.Close()

			useModel := !noModel
			if useModel && !d.CheckAvailability(cmd.Context()) {
				fmt.Fprintln(cmd.ErrOrStderr(), "model endpoint unreachable; falling back to random selection")
				useModel = false
			}

			selection, err := d.Resolve(cmd.Context(), id, useModel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Song:   %s\n", selection.SongID)
			fmt.Fprintf(out, "Source: %s\n", selection.Source)
			fmt.Fprintf(out, "Mood:   %s\n", selection.Mood)
			fmt.Fprintf(out, "Assets: %s\n", strings.Join(selection.AssetIDs, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Song title")
	cmd.Flags().StringVar(&artist, "artist", "", "Song artist")
	cmd.Flags().StringVar(&lyricsFile, "lyrics-file", "", "File with lyrics to include in the prompt")
	cmd.Flags().BoolVar(&noModel, "no-model", false, "Skip the model; use cache or random fallback only")
	return cmd
}
