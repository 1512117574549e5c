package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertSimilarityBatch inserts similarity rows inside one transaction.
// Canonical ordering is enforced at this write boundary: any pair arriving
// with source > target is flipped before insertion.
func (s *Store) InsertSimilarityBatch(ctx context.Context, pairs []*SeriesSimilarity) error {
	if len(pairs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin similarity tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT OR REPLACE INTO series_similarity (
            source_series_id, target_series_id, similarity_score,
            genre_score, tag_score, character_score, team_score,
            creator_score, publisher_score, keyword_score, computed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare similarity insert: %w", err)
	}
	defer stmt.Close()

	for _, pair := range pairs {
		sourceID, targetID := pair.SourceSeriesID, pair.TargetSeriesID
		if sourceID > targetID {
			sourceID, targetID = targetID, sourceID
		}
		computedAt := pair.ComputedAt
		if computedAt.IsZero() {
			computedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(
			ctx,
			sourceID,
			targetID,
			pair.SimilarityScore,
			pair.GenreScore,
			pair.TagScore,
			pair.CharacterScore,
			pair.TeamScore,
			pair.CreatorScore,
			pair.PublisherScore,
			pair.KeywordScore,
			formatTime(computedAt),
		); err != nil {
			return fmt.Errorf("insert similarity pair: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit similarity batch: %w", err)
	}
	return nil
}

// DeleteAllSimilarities wipes the similarity table ahead of a full rebuild.
func (s *Store) DeleteAllSimilarities(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM series_similarity`)
	if err != nil {
		return 0, fmt.Errorf("delete similarities: %w", err)
	}
	return res.RowsAffected()
}

// DeleteSimilaritiesFor removes every row involving a series, both directions.
func (s *Store) DeleteSimilaritiesFor(ctx context.Context, seriesID string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM series_similarity WHERE source_series_id = ? OR target_series_id = ?`,
		seriesID, seriesID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete similarities for series: %w", err)
	}
	return res.RowsAffected()
}

// SimilarSeries returns the highest-scoring stored pairs involving the
// series, normalized so SeriesID is always the other member of the pair.
func (s *Store) SimilarSeries(ctx context.Context, seriesID string, limit int) ([]*SimilarEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT source_series_id, target_series_id, similarity_score,
                genre_score, tag_score, character_score, team_score,
                creator_score, publisher_score, keyword_score
         FROM series_similarity
         WHERE source_series_id = ? OR target_series_id = ?
         ORDER BY similarity_score DESC
         LIMIT ?`,
		seriesID, seriesID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query similar series: %w", err)
	}
	defer rows.Close()

	var entries []*SimilarEntry
	for rows.Next() {
		var (
			sourceID string
			targetID string
			entry    SimilarEntry
		)
		if err := rows.Scan(
			&sourceID,
			&targetID,
			&entry.SimilarityScore,
			&entry.GenreScore,
			&entry.TagScore,
			&entry.CharacterScore,
			&entry.TeamScore,
			&entry.CreatorScore,
			&entry.PublisherScore,
			&entry.KeywordScore,
		); err != nil {
			return nil, err
		}
		entry.SeriesID = targetID
		if targetID == seriesID {
			entry.SeriesID = sourceID
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// HasSimilarityData reports whether any similarity rows exist.
func (s *Store) HasSimilarityData(ctx context.Context) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM series_similarity LIMIT 1`).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check similarity data: %w", err)
	}
	return true, nil
}

// SimilarityTableStats aggregates the stored similarity rows.
func (s *Store) SimilarityTableStats(ctx context.Context) (SimilarityStats, error) {
	var stats SimilarityStats
	var avg sql.NullFloat64
	var last sql.NullString
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), AVG(similarity_score), MAX(computed_at) FROM series_similarity`,
	).Scan(&stats.PairCount, &avg, &last)
	if err != nil {
		return stats, fmt.Errorf("similarity stats: %w", err)
	}
	stats.AverageScore = avg.Float64
	stats.LastComputed = parseNullableTime(last)
	return stats, nil
}
