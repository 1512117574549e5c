package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const seriesColumns = "id, name, publisher, start_year, genres, tags, characters, teams, creators, writer, penciller, summary, created_at, updated_at, deleted_at"

// UpsertSeries inserts or updates a series row, refreshing updated_at.
func (s *Store) UpsertSeries(ctx context.Context, series *Series) error {
	if series == nil {
		return errors.New("series is nil")
	}
	now := time.Now().UTC()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = now

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO series (
            id, name, publisher, start_year, genres, tags, characters, teams,
            creators, writer, penciller, summary, created_at, updated_at, deleted_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            publisher = excluded.publisher,
            start_year = excluded.start_year,
            genres = excluded.genres,
            tags = excluded.tags,
            characters = excluded.characters,
            teams = excluded.teams,
            creators = excluded.creators,
            writer = excluded.writer,
            penciller = excluded.penciller,
            summary = excluded.summary,
            updated_at = excluded.updated_at,
            deleted_at = excluded.deleted_at`,
		series.ID,
		series.Name,
		nullableString(series.Publisher),
		nullableInt(series.StartYear),
		nullableString(series.Genres),
		nullableString(series.Tags),
		nullableString(series.Characters),
		nullableString(series.Teams),
		nullableString(series.Creators),
		nullableString(series.Writer),
		nullableString(series.Penciller),
		nullableString(series.Summary),
		formatTime(series.CreatedAt),
		formatTime(series.UpdatedAt),
		nullableTime(series.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert series: %w", err)
	}
	return nil
}

// GetSeries fetches a series by identifier, soft-deleted rows included.
func (s *Store) GetSeries(ctx context.Context, id string) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

// ListSeries returns all non-deleted series ordered by identifier.
func (s *Store) ListSeries(ctx context.Context) ([]*Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()
	return collectSeries(rows)
}

// ListSeriesUpdatedSince returns non-deleted series whose updated_at is
// strictly after the cutoff, ordered by identifier.
func (s *Store) ListSeriesUpdatedSince(ctx context.Context, cutoff time.Time) ([]*Series, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+seriesColumns+` FROM series WHERE deleted_at IS NULL AND updated_at > ? ORDER BY id`,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("list updated series: %w", err)
	}
	defer rows.Close()
	return collectSeries(rows)
}

// CountSeries returns the number of non-deleted series.
func (s *Store) CountSeries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM series WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count series: %w", err)
	}
	return count, nil
}

// SoftDeleteSeries marks a series deleted without removing the row.
func (s *Store) SoftDeleteSeries(ctx context.Context, id string) (bool, error) {
	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE series SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete series: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func collectSeries(rows *sql.Rows) ([]*Series, error) {
	var out []*Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, rows.Err()
}

func scanSeries(scanner interface{ Scan(dest ...any) error }) (*Series, error) {
	var (
		id         string
		name       string
		publisher  sql.NullString
		startYear  sql.NullInt64
		genres     sql.NullString
		tags       sql.NullString
		characters sql.NullString
		teams      sql.NullString
		creators   sql.NullString
		writer     sql.NullString
		penciller  sql.NullString
		summary    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
		deletedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&publisher,
		&startYear,
		&genres,
		&tags,
		&characters,
		&teams,
		&creators,
		&writer,
		&penciller,
		&summary,
		&createdRaw,
		&updatedRaw,
		&deletedRaw,
	); err != nil {
		return nil, err
	}

	series := &Series{
		ID:         id,
		Name:       name,
		Publisher:  publisher.String,
		StartYear:  int(startYear.Int64),
		Genres:     genres.String,
		Tags:       tags.String,
		Characters: characters.String,
		Teams:      teams.String,
		Creators:   creators.String,
		Writer:     writer.String,
		Penciller:  penciller.String,
		Summary:    summary.String,
		DeletedAt:  parseNullableTime(deletedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		series.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		series.UpdatedAt = updated
	}
	return series, nil
}
