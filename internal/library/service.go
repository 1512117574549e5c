// Package library ties the matcher, the similarity engine, and the store
// together into the operations the daemon API and the CLI expose.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"helixio/internal/logging"
	"helixio/internal/match"
	"helixio/internal/metadata"
	"helixio/internal/similarity"
	"helixio/internal/store"
)

// ErrSeriesNotFound is returned when an operation references a series the
// store does not know.
var ErrSeriesNotFound = errors.New("library: series not found")

// Service coordinates matching, similarity, and persistence.
type Service struct {
	store   *store.Store
	matcher *match.Matcher
	engine  *similarity.Engine
	logger  *slog.Logger

	issueThreshold float64
}

// New constructs the library service.
func New(st *store.Store, matcher *match.Matcher, engine *similarity.Engine, issueThreshold float64, logger *slog.Logger) *Service {
	if issueThreshold <= 0 || issueThreshold > 1 {
		issueThreshold = match.DefaultIssueThreshold
	}
	return &Service{
		store:          st,
		matcher:        matcher,
		engine:         engine,
		logger:         logging.NewComponentLogger(logger, "library"),
		issueThreshold: issueThreshold,
	}
}

// MatchSeries runs a cross-source search for the primary series and
// persists every auto-match as a mapping. Matches below the auto
// threshold are returned for review but not stored.
func (s *Service) MatchSeries(ctx context.Context, primary metadata.SeriesMetadata, opts match.Options) (*match.CrossSourceResult, error) {
	result := s.matcher.FindCrossSourceMatches(ctx, primary, opts)
	for i := range result.Matches {
		m := &result.Matches[i]
		if !m.AutoMatch {
			continue
		}
		if err := s.saveMatch(ctx, primary, m, store.MatchMethodAuto); err != nil {
			return result, fmt.Errorf("persist auto match for %s: %w", m.Candidate.Source, err)
		}
	}
	return result, nil
}

// LinkSeries records a user-confirmed mapping between two source records.
// It overwrites any previous mapping for the same source pair.
func (s *Service) LinkSeries(ctx context.Context, primary metadata.SeriesMetadata, candidate metadata.SeriesMetadata) (*store.CrossSourceMapping, error) {
	confidence, factors := match.ScoreSeriesMatch(primary, candidate)
	mapping := &store.CrossSourceMapping{
		PrimarySource:   primary.Source,
		PrimarySourceID: primary.SourceID,
		MatchedSource:   candidate.Source,
		MatchedSourceID: candidate.SourceID,
		Confidence:      confidence,
		MatchMethod:     store.MatchMethodUser,
		MatchFactors:    encodeFactors(factors),
		Verified:        true,
	}
	if err := s.store.SaveMapping(ctx, mapping); err != nil {
		return nil, err
	}
	s.logger.Info("series linked",
		logging.String(logging.FieldSource, string(primary.Source)),
		logging.String(logging.FieldSeriesID, primary.SourceID),
		logging.String("matched_source", string(candidate.Source)),
		logging.Float64("confidence", confidence))
	return mapping, nil
}

// Mappings returns the stored counterparts of a source record,
// direction-normalized so the queried record is always the primary side.
func (s *Service) Mappings(ctx context.Context, source metadata.Source, sourceID string) ([]*store.CrossSourceMapping, error) {
	return s.store.MappingsFor(ctx, source, sourceID)
}

// FullyMapped reports whether the record already has a stored mapping
// toward every one of the target sources.
func (s *Service) FullyMapped(ctx context.Context, source metadata.Source, sourceID string, targets []metadata.Source) (bool, error) {
	return s.store.HasMappingsForAllSources(ctx, source, sourceID, targets)
}

// UnlinkSeries removes every mapping involving the given record, in
// either direction. It returns the number of removed rows.
func (s *Service) UnlinkSeries(ctx context.Context, source metadata.Source, sourceID string) (int64, error) {
	return s.store.InvalidateMappings(ctx, source, sourceID)
}

// MatchIssue locates the counterparts of an issue in every source its
// series is mapped to.
func (s *Service) MatchIssue(ctx context.Context, issue metadata.IssueMetadata) ([]match.IssueMatch, error) {
	mappings, err := s.store.MappingsFor(ctx, issue.Source, issue.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("load series mappings: %w", err)
	}
	mapped := make([]match.MappedSeries, 0, len(mappings))
	for _, m := range mappings {
		mapped = append(mapped, match.MappedSeries{
			Source:   m.MatchedSource,
			SeriesID: m.MatchedSourceID,
		})
	}
	return s.matcher.FindIssueCrossMatches(ctx, issue, mapped, s.issueThreshold), nil
}

// ImportSeries upserts a local series record and rescores its similarity
// pairs against the corpus.
func (s *Service) ImportSeries(ctx context.Context, series *store.Series) error {
	if strings.TrimSpace(series.ID) == "" {
		return errors.New("library: series id is required")
	}
	if err := s.store.UpsertSeries(ctx, series); err != nil {
		return fmt.Errorf("upsert series: %w", err)
	}
	pairs, err := s.engine.UpdateSeriesSimilarities(ctx, series.ID)
	if err != nil {
		return fmt.Errorf("rescore series %s: %w", series.ID, err)
	}
	s.logger.Info("series imported",
		logging.String(logging.FieldSeriesID, series.ID),
		logging.Int64("pairs", pairs))
	return nil
}

// RemoveSeries soft-deletes a series and purges its similarity pairs.
func (s *Service) RemoveSeries(ctx context.Context, seriesID string) error {
	deleted, err := s.store.SoftDeleteSeries(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	if !deleted {
		return ErrSeriesNotFound
	}
	if _, err := s.engine.UpdateSeriesSimilarities(ctx, seriesID); err != nil {
		return fmt.Errorf("purge similarity pairs: %w", err)
	}
	s.logger.Info("series removed", logging.String(logging.FieldSeriesID, seriesID))
	return nil
}

// SimilarSeries returns the closest neighbors of a local series.
func (s *Service) SimilarSeries(ctx context.Context, seriesID string, limit int) ([]*store.SimilarEntry, error) {
	series, err := s.store.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil || series.Deleted() {
		return nil, ErrSeriesNotFound
	}
	return s.engine.SimilarSeries(ctx, seriesID, limit)
}

// HasSimilarityData reports whether any similarity pairs are stored.
func (s *Service) HasSimilarityData(ctx context.Context) (bool, error) {
	return s.store.HasSimilarityData(ctx)
}

// RunSimilarityJob triggers a similarity computation run and waits for it.
func (s *Service) RunSimilarityJob(ctx context.Context, jobType store.JobType) (*similarity.JobResult, error) {
	return s.engine.RunJob(ctx, jobType)
}

// StartSimilarityJob launches a similarity run in the background and
// returns the pending job row for callers that poll instead of waiting.
func (s *Service) StartSimilarityJob(ctx context.Context, jobType store.JobType) (*store.SimilarityJob, error) {
	return s.engine.StartJob(ctx, jobType)
}

// Jobs lists recent similarity jobs, newest first.
func (s *Service) Jobs(ctx context.Context, limit int) ([]*store.SimilarityJob, error) {
	return s.store.ListJobs(ctx, limit)
}

// Stats aggregates library and similarity counts for status output.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	seriesCount, err := s.store.CountSeries(ctx)
	if err != nil {
		return Stats{}, err
	}
	mappingCount, err := s.store.CountMappings(ctx)
	if err != nil {
		return Stats{}, err
	}
	simStats, err := s.engine.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		SeriesCount:  seriesCount,
		MappingCount: mappingCount,
		Similarity:   simStats,
		JobRunning:   s.engine.Running(),
	}, nil
}

// Stats summarizes the library state.
type Stats struct {
	SeriesCount  int64                 `json:"seriesCount"`
	MappingCount int64                 `json:"mappingCount"`
	Similarity   store.SimilarityStats `json:"similarity"`
	JobRunning   bool                  `json:"jobRunning"`
}

func (s *Service) saveMatch(ctx context.Context, primary metadata.SeriesMetadata, m *match.SeriesMatch, method store.MatchMethod) error {
	mapping := &store.CrossSourceMapping{
		PrimarySource:   primary.Source,
		PrimarySourceID: primary.SourceID,
		MatchedSource:   m.Candidate.Source,
		MatchedSourceID: m.Candidate.SourceID,
		Confidence:      m.Confidence,
		MatchMethod:     method,
		MatchFactors:    encodeFactors(m.Factors),
		UpdatedAt:       time.Now().UTC(),
	}
	return s.store.SaveMapping(ctx, mapping)
}

func encodeFactors(factors match.SeriesFactors) string {
	data, err := json.Marshal(factors)
	if err != nil {
		return ""
	}
	return string(data)
}
