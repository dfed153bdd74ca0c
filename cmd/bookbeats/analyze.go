package main

import (
	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/bookbeats/internal/app"
)

func (c *cli) cmdAnalyze() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <book title>",
		Short: "Show the musical analysis of a book",
		Long:  "Resolves the title, runs the configured analyzer and prints the normalized analysis. A failing analyzer yields the defaults.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.NewAnalysisOnly(c.cfg)
			if err != nil {
				return err
			}
			book, analysis := svc.AnalyzeTitle(cmd.Context(), args[0])

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"book": book, "analysis": analysis})
			}
			printAnalysis(cmd.OutOrStdout(), book, analysis)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	return cmd
}
