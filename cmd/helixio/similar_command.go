package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"helixio/internal/library"
)

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var (
		limitFlag int
		jsonFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "similar <series-id>",
		Short: "Show the most similar series in the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.library.SimilarSeries(cmd.Context(), args[0], limitFlag)
			if err != nil {
				if errors.Is(err, library.ErrSeriesNotFound) {
					return fmt.Errorf("series %q not found", args[0])
				}
				return err
			}

			if jsonFlag {
				return writeJSON(cmd, map[string]any{"seriesId": args[0], "similar": entries})
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				indexed, err := rt.library.HasSimilarityData(cmd.Context())
				if err != nil {
					return err
				}
				if !indexed {
					fmt.Fprintln(out, "Similarity index is empty; run `helixio similarity run` first")
				} else {
					fmt.Fprintln(out, "No sufficiently similar series found")
				}
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.SeriesID,
					fmt.Sprintf("%.3f", entry.SimilarityScore),
					fmt.Sprintf("%.2f", entry.CharacterScore),
					fmt.Sprintf("%.2f", entry.GenreScore),
					fmt.Sprintf("%.2f", entry.CreatorScore),
					fmt.Sprintf("%.2f", entry.KeywordScore),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Series", "Score", "Characters", "Genres", "Creators", "Keywords"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}
