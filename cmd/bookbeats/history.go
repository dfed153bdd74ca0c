package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/bookbeats/internal/app"
)

func (c *cli) cmdHistory() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history [playlist id]",
		Short: "List recent playlists, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				playlist, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("playlist %s: %w", args[0], err)
				}
				if asJSON {
					return writeJSON(out, playlist)
				}
				printPlaylist(out, playlist)
				summary, n, err := store.FeatureSummary(cmd.Context(), playlist.ID)
				if err != nil {
					return err
				}
				printFeatureSummary(out, summary, n)
				return nil
			}

			recent, err := store.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, recent)
			}
			if len(recent) == 0 {
				dim.Fprintln(out, "no playlists yet")
				return nil
			}
			for _, p := range recent {
				dim.Fprintf(out, "%s  %s  ", p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"))
				fmt.Fprintf(out, "%-40s %3d tracks\n", p.Book.Title, p.TrackCount)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of playlists to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
