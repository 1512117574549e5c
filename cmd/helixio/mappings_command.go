package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"helixio/internal/metadata"
)

func newMappingsCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag string
		jsonFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "mappings <source-id>",
		Short: "Show cross-source mappings for a series record",
		Args:  cobra.ExactArgs(1),
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

			mappings, err := rt.library.Mappings(cmd.Context(), source, args[0])
			if err != nil {
				return err
			}

			if jsonFlag {
				return writeJSON(cmd, map[string]any{"mappings": mappings})
			}

			out := cmd.OutOrStdout()
			if len(mappings) == 0 {
				fmt.Fprintln(out, "No mappings recorded")
				return nil
			}
			rows := make([][]string, 0, len(mappings))
			for _, m := range mappings {
				rows = append(rows, []string{
					string(m.MatchedSource),
					m.MatchedSourceID,
					fmt.Sprintf("%.3f", m.Confidence),
					string(m.MatchMethod),
					yesNo(m.Verified),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "ID", "Confidence", "Method", "Verified"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "comicvine", "Source the record belongs to")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func newLinkCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag     string
		idFlag         string
		nameFlag       string
		targetFlag     string
		targetIDFlag   string
		targetNameFlag string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Record a user-confirmed mapping between two source records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, ok := metadata.ParseSource(sourceFlag)
			if !ok {
				return fmt.Errorf("unknown source %q", sourceFlag)
			}
			target, ok := metadata.ParseSource(targetFlag)
			if !ok {
				return fmt.Errorf("unknown target source %q", targetFlag)
			}
			if source == target {
				return fmt.Errorf("cannot link %s to itself", source)
			}
			if idFlag == "" || targetIDFlag == "" {
				return fmt.Errorf("both --id and --target-id are required")
			}

			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			primary := metadata.SeriesMetadata{Source: source, SourceID: idFlag, Name: nameFlag}
			candidate := metadata.SeriesMetadata{Source: target, SourceID: targetIDFlag, Name: targetNameFlag}
			if candidate.Name == "" {
				candidate.Name = nameFlag
			}

			mapping, err := rt.library.LinkSeries(cmd.Context(), primary, candidate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s/%s to %s/%s (confidence %.3f, verified)\n",
				source, idFlag, target, targetIDFlag, mapping.Confidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "comicvine", "Source the primary record belongs to")
	cmd.Flags().StringVar(&idFlag, "id", "", "Primary source record identifier")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Series name as the primary source reports it")
	cmd.Flags().StringVar(&targetFlag, "target", "", "Source of the record to link to")
	cmd.Flags().StringVar(&targetIDFlag, "target-id", "", "Identifier of the record to link to")
	cmd.Flags().StringVar(&targetNameFlag, "target-name", "", "Series name as the target source reports it")
	return cmd
}

func newUnlinkCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "unlink <source-id>",
		Short: "Remove every mapping involving a series record",
		Args:  cobra.ExactArgs(1),
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

			removed, err := rt.library.UnlinkSeries(cmd.Context(), source, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d mapping(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "comicvine", "Source the record belongs to")
	return cmd
}
