package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"helixio/internal/store"
)

func newSimilarityCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similarity",
		Short: "Similarity computation utilities",
	}
	cmd.AddCommand(newSimilarityRunCommand(ctx))
	cmd.AddCommand(newSimilarityStatsCommand(ctx))
	cmd.AddCommand(newSimilarityJobsCommand(ctx))
	return cmd
}

func newSimilarityRunCommand(ctx *commandContext) *cobra.Command {
	var (
		fullFlag bool
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute similarity scores for the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			jobType := store.JobTypeIncremental
			if fullFlag {
				jobType = store.JobTypeFull
			}

			result, err := rt.library.RunSimilarityJob(cmd.Context(), jobType)
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s: scanned %d series, stored %d of %d pairs in %s\n",
				result.JobID, result.Status, result.SeriesScanned, result.PairsStored,
				result.PairsProcessed, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fullFlag, "full", false, "Rebuild every pair instead of updating changed series")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func newSimilarityStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show similarity table statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.library.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Series:        %d\n", stats.SeriesCount)
			fmt.Fprintf(out, "Mappings:      %d\n", stats.MappingCount)
			fmt.Fprintf(out, "Scored pairs:  %d\n", stats.Similarity.PairCount)
			fmt.Fprintf(out, "Average score: %.3f\n", stats.Similarity.AverageScore)
			if stats.Similarity.LastComputed != nil {
				fmt.Fprintf(out, "Last computed: %s\n", stats.Similarity.LastComputed.Local().Format(time.RFC1123))
			} else {
				fmt.Fprintln(out, "Last computed: never")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func newSimilarityJobsCommand(ctx *commandContext) *cobra.Command {
	var (
		limitFlag int
		jsonFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent similarity jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			jobs, err := rt.library.Jobs(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, map[string]any{"jobs": jobs})
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No similarity jobs recorded")
				return nil
			}
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					job.ID,
					string(job.Type),
					string(job.Status),
					fmt.Sprintf("%d/%d", job.ProcessedPairs, job.TotalPairs),
					job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Type", "Status", "Progress", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of jobs to list")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}
