package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"helixio/internal/library"
	"helixio/internal/store"
)

func newSeriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Manage local library series",
	}
	cmd.AddCommand(newSeriesImportCommand(ctx))
	cmd.AddCommand(newSeriesRemoveCommand(ctx))
	return cmd
}

// seriesRecord is the JSON import shape. List fields accept either a
// JSON array or a single comma-joined string.
type seriesRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Publisher  string    `json:"publisher"`
	StartYear  int       `json:"startYear"`
	Genres     listField `json:"genres"`
	Tags       listField `json:"tags"`
	Characters listField `json:"characters"`
	Teams      listField `json:"teams"`
	Creators   listField `json:"creators"`
	Writer     listField `json:"writer"`
	Penciller  listField `json:"penciller"`
	Summary    string    `json:"summary"`
}

type listField []string

func (f *listField) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*f = values
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			*f = append(*f, trimmed)
		}
	}
	return nil
}

func (f listField) joined() string {
	return strings.Join(f, ", ")
}

func newSeriesImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import series records from a JSON file",
		Long:  "Reads a JSON array of series records, upserts them into the library, and rescores their similarity pairs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var records []seriesRecord
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}
			if len(records) == 0 {
				return errors.New("import file contains no series")
			}

			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			for i, record := range records {
				if strings.TrimSpace(record.ID) == "" {
					return fmt.Errorf("record %d is missing an id", i)
				}
				series := &store.Series{
					ID:         record.ID,
					Name:       record.Name,
					Publisher:  record.Publisher,
					StartYear:  record.StartYear,
					Genres:     record.Genres.joined(),
					Tags:       record.Tags.joined(),
					Characters: record.Characters.joined(),
					Teams:      record.Teams.joined(),
					Creators:   record.Creators.joined(),
					Writer:     record.Writer.joined(),
					Penciller:  record.Penciller.joined(),
					Summary:    record.Summary,
				}
				if err := rt.library.ImportSeries(cmd.Context(), series); err != nil {
					return fmt.Errorf("import %s: %w", record.ID, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d series\n", len(records))
			return nil
		},
	}
	return cmd
}

func newSeriesRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <series-id>",
		Short: "Soft-delete a series and purge its similarity pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.library.RemoveSeries(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, library.ErrSeriesNotFound) {
					return fmt.Errorf("series %q not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Series %s removed\n", args[0])
			return nil
		},
	}
	return cmd
}
