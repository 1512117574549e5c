package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"helixio/internal/match"
	"helixio/internal/metadata"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag    string
		sourceIDFlag  string
		publisherFlag string
		yearFlag      int
		issuesFlag    int
		creatorsFlag  []string
		aliasesFlag   []string
		targetsFlag   []string
		refreshFlag   bool
		jsonFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "match <series name>",
		Short: "Search secondary sources for a series and record auto-matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, ok := metadata.ParseSource(sourceFlag)
			if !ok {
				return fmt.Errorf("unknown source %q", sourceFlag)
			}

			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			creators := make([]metadata.Credit, 0, len(creatorsFlag))
			for _, name := range creatorsFlag {
				creators = append(creators, metadata.Credit{Name: name})
			}
			primary := metadata.SeriesMetadata{
				Source:     source,
				SourceID:   sourceIDFlag,
				Name:       strings.Join(args, " "),
				Publisher:  publisherFlag,
				StartYear:  yearFlag,
				IssueCount: issuesFlag,
				Creators:   creators,
				Aliases:    aliasesFlag,
			}

			var opts match.Options
			for _, target := range targetsFlag {
				parsed, ok := metadata.ParseSource(target)
				if !ok {
					return fmt.Errorf("unknown target source %q", target)
				}
				opts.TargetSources = append(opts.TargetSources, parsed)
			}

			// An already fully mapped record needs no new searches.
			if !refreshFlag && sourceIDFlag != "" {
				targets := opts.TargetSources
				if len(targets) == 0 {
					targets = rt.cfg.EnabledSources()
				}
				done, err := rt.library.FullyMapped(cmd.Context(), source, sourceIDFlag, targets)
				if err != nil {
					return err
				}
				if done {
					fmt.Fprintln(cmd.OutOrStdout(), "Already mapped to every target source; use --refresh to search again")
					return nil
				}
			}

			result, err := rt.library.MatchSeries(cmd.Context(), primary, opts)
			if err != nil {
				return err
			}

			if jsonFlag {
				return writeJSON(cmd, result)
			}
			printMatchResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "comicvine", "Primary metadata source")
	cmd.Flags().StringVar(&sourceIDFlag, "id", "", "Primary source record identifier")
	cmd.Flags().StringVar(&publisherFlag, "publisher", "", "Publisher name")
	cmd.Flags().IntVar(&yearFlag, "year", 0, "Series start year")
	cmd.Flags().IntVar(&issuesFlag, "issues", 0, "Issue count")
	cmd.Flags().StringSliceVar(&creatorsFlag, "creator", nil, "Creator name (repeatable)")
	cmd.Flags().StringSliceVar(&aliasesFlag, "alias", nil, "Alternate title (repeatable)")
	cmd.Flags().StringSliceVar(&targetsFlag, "target", nil, "Target source (repeatable, defaults to all enabled)")
	cmd.Flags().BoolVar(&refreshFlag, "refresh", false, "Search again even when every target is already mapped")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func printMatchResult(cmd *cobra.Command, result *match.CrossSourceResult) {
	out := cmd.OutOrStdout()
	if len(result.Matches) == 0 {
		fmt.Fprintln(out, "No matches found")
	} else {
		rows := make([][]string, 0, len(result.Matches))
		for _, m := range result.Matches {
			rows = append(rows, []string{
				string(m.Candidate.Source),
				m.Candidate.SourceID,
				m.Candidate.Name,
				fmt.Sprintf("%d", m.Candidate.StartYear),
				fmt.Sprintf("%.3f", m.Confidence),
				yesNo(m.AutoMatch),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Source", "ID", "Name", "Year", "Confidence", "Auto"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	for source, status := range result.Status {
		if status == match.StatusMatched {
			continue
		}
		detail := string(status)
		if msg, ok := result.Errors[source]; ok && msg != "" {
			detail = fmt.Sprintf("%s (%s)", status, msg)
		}
		fmt.Fprintf(out, "%s: %s\n", source, detail)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
