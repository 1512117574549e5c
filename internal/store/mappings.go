package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"helixio/internal/metadata"
)

const mappingColumns = "id, primary_source, primary_source_id, matched_source, matched_source_id, confidence, match_method, match_factors, verified, created_at, updated_at"

// SaveMapping inserts or updates a cross-source mapping. The upsert key is
// (primary_source, primary_source_id, matched_source).
func (s *Store) SaveMapping(ctx context.Context, mapping *CrossSourceMapping) error {
	if mapping == nil {
		return fmt.Errorf("mapping is nil")
	}
	now := time.Now().UTC()
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cross_source_mappings (
            primary_source, primary_source_id, matched_source, matched_source_id,
            confidence, match_method, match_factors, verified, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (primary_source, primary_source_id, matched_source) DO UPDATE SET
            matched_source_id = excluded.matched_source_id,
            confidence = excluded.confidence,
            match_method = excluded.match_method,
            match_factors = excluded.match_factors,
            verified = excluded.verified,
            updated_at = excluded.updated_at`,
		string(mapping.PrimarySource),
		mapping.PrimarySourceID,
		string(mapping.MatchedSource),
		mapping.MatchedSourceID,
		mapping.Confidence,
		string(mapping.MatchMethod),
		nullableString(mapping.MatchFactors),
		boolToInt(mapping.Verified),
		formatTime(mapping.CreatedAt),
		formatTime(mapping.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

// MappingsFor returns all mappings involving the given record with
// direction normalized: the queried record is always the primary side of
// the returned rows, regardless of which columns it was stored in.
func (s *Store) MappingsFor(ctx context.Context, source metadata.Source, sourceID string) ([]*CrossSourceMapping, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+mappingColumns+` FROM cross_source_mappings
         WHERE (primary_source = ? AND primary_source_id = ?)
            OR (matched_source = ? AND matched_source_id = ?)
         ORDER BY confidence DESC`,
		string(source), sourceID,
		string(source), sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*CrossSourceMapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		// Flip rows stored with the queried record on the matched side.
		if mapping.PrimarySource != source || mapping.PrimarySourceID != sourceID {
			mapping.PrimarySource, mapping.MatchedSource = mapping.MatchedSource, mapping.PrimarySource
			mapping.PrimarySourceID, mapping.MatchedSourceID = mapping.MatchedSourceID, mapping.PrimarySourceID
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}

// MappingFor returns the direction-normalized mapping from the given record
// to one specific target source, or nil when absent.
func (s *Store) MappingFor(ctx context.Context, source metadata.Source, sourceID string, target metadata.Source) (*CrossSourceMapping, error) {
	mappings, err := s.MappingsFor(ctx, source, sourceID)
	if err != nil {
		return nil, err
	}
	for _, mapping := range mappings {
		if mapping.MatchedSource == target {
			return mapping, nil
		}
	}
	return nil, nil
}

// HasMappingsForAllSources reports whether the record already has a stored
// mapping toward every one of the target sources.
func (s *Store) HasMappingsForAllSources(ctx context.Context, source metadata.Source, sourceID string, targets []metadata.Source) (bool, error) {
	mappings, err := s.MappingsFor(ctx, source, sourceID)
	if err != nil {
		return false, err
	}
	mapped := make(map[metadata.Source]struct{}, len(mappings))
	for _, mapping := range mappings {
		mapped[mapping.MatchedSource] = struct{}{}
	}
	for _, target := range targets {
		if target == source {
			continue
		}
		if _, ok := mapped[target]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// InvalidateMappings removes every mapping involving the given record,
// regardless of which side it was stored on.
func (s *Store) InvalidateMappings(ctx context.Context, source metadata.Source, sourceID string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM cross_source_mappings
         WHERE (primary_source = ? AND primary_source_id = ?)
            OR (matched_source = ? AND matched_source_id = ?)`,
		string(source), sourceID,
		string(source), sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("invalidate mappings: %w", err)
	}
	return res.RowsAffected()
}

// CountMappings returns the total number of stored mappings.
func (s *Store) CountMappings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM cross_source_mappings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return count, nil
}

func scanMapping(scanner interface{ Scan(dest ...any) error }) (*CrossSourceMapping, error) {
	var (
		id            int64
		primarySource string
		primaryID     string
		matchedSource string
		matchedID     string
		confidence    float64
		method        string
		factors       sql.NullString
		verified      sql.NullInt64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&primarySource,
		&primaryID,
		&matchedSource,
		&matchedID,
		&confidence,
		&method,
		&factors,
		&verified,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	mapping := &CrossSourceMapping{
		ID:              id,
		PrimarySource:   metadata.Source(primarySource),
		PrimarySourceID: primaryID,
		MatchedSource:   metadata.Source(matchedSource),
		MatchedSourceID: matchedID,
		Confidence:      confidence,
		MatchMethod:     MatchMethod(method),
		MatchFactors:    factors.String,
		Verified:        verified.Valid && verified.Int64 != 0,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		mapping.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		mapping.UpdatedAt = updated
	}
	return mapping, nil
}
