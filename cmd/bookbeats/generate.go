package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/bookbeats/internal/app"
	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

func (c *cli) cmdGenerate() *cobra.Command {
	var (
		prefs   domain.UserPreferences
		size    int
		asJSON  bool
		preview bool
	)
	cmd := &cobra.Command{
		Use:   "generate <book title>",
		Short: "Generate a playlist for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 0 || size > c.cfg.REST.MaxTargetSize {
				return errors.New("--size must be between 1 and the configured maximum")
			}
			// A one-shot run usually exits before queued preview jobs finish.
			c.cfg.Worker.Enabled = preview

			a, err := app.New(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			playlist, err := a.Orchestrator.GenerateForTitle(cmd.Context(), args[0], prefs, size)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), playlist)
			}
			printPlaylist(cmd.OutOrStdout(), playlist)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&prefs.InstrumentalOnly, "instrumental", "i", false, "only instrumental tracks")
	cmd.Flags().BoolVar(&prefs.ForeignLyricsOk, "foreign-lyrics", false, "allow lyrics in other languages")
	cmd.Flags().IntVarP(&size, "size", "n", 0, "playlist length (default engine.target_size)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the playlist as JSON")
	cmd.Flags().BoolVar(&preview, "preview", false, "analyze track previews before exiting")
	return cmd
}
