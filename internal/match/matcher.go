package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"helixio/internal/logging"
	"helixio/internal/metadata"
	"helixio/internal/providers"
)

// DefaultAutoMatchThreshold is the confidence at or above which a match
// may be accepted without human review.
const DefaultAutoMatchThreshold = 0.95

// maxYearGap is the largest start-year difference tolerated for a
// candidate that has no other year-match evidence. It guards against
// same-named reboots from a different era.
const maxYearGap = 2

// searchLimit bounds each per-source provider search.
const searchLimit = 10

// Status describes the outcome of one source during a cross-source search.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusNoMatch   Status = "no_match"
	StatusSearching Status = "searching"
	StatusError     Status = "error"
	StatusSkipped   Status = "skipped"
)

// SeriesMatch is one scored candidate from a secondary source.
type SeriesMatch struct {
	Candidate  metadata.SeriesMetadata `json:"candidate"`
	Confidence float64                 `json:"confidence"`
	Factors    SeriesFactors           `json:"factors"`
	AutoMatch  bool                    `json:"autoMatch"`
}

// CrossSourceResult is the outcome of a cross-source series search.
type CrossSourceResult struct {
	PrimarySource   metadata.Source            `json:"primarySource"`
	PrimarySourceID string                     `json:"primarySourceId"`
	Matches         []SeriesMatch              `json:"matches"`
	Status          map[metadata.Source]Status `json:"status"`
	Errors          map[metadata.Source]string `json:"errors,omitempty"`
}

// Options tunes a cross-source search.
type Options struct {
	// TargetSources overrides the default target set (every enabled
	// source except the primary's own).
	TargetSources []metadata.Source
	// AutoMatchThreshold overrides the matcher's configured threshold.
	AutoMatchThreshold float64
}

// Matcher searches the registered secondary sources for records matching
// a primary series and ranks the candidates by confidence.
type Matcher struct {
	registry       *providers.Registry
	enabledSources []metadata.Source
	autoThreshold  float64
	logger         *slog.Logger
}

// New creates a Matcher over the given registry. enabledSources is the
// configured source set consulted when Options does not name targets.
func New(registry *providers.Registry, enabledSources []metadata.Source, autoThreshold float64, logger *slog.Logger) *Matcher {
	if autoThreshold <= 0 || autoThreshold > 1 {
		autoThreshold = DefaultAutoMatchThreshold
	}
	return &Matcher{
		registry:       registry,
		enabledSources: enabledSources,
		autoThreshold:  autoThreshold,
		logger:         logging.NewComponentLogger(logger, "matcher"),
	}
}

type sourceOutcome struct {
	source metadata.Source
	status Status
	match  *SeriesMatch
	err    error
}

// FindCrossSourceMatches searches every target source concurrently for
// the best record matching the primary series. A single source's failure
// is recorded in the status map and never aborts sibling searches. The
// call has no side effects; callers decide whether to persist accepted
// matches.
func (m *Matcher) FindCrossSourceMatches(ctx context.Context, primary metadata.SeriesMetadata, opts Options) *CrossSourceResult {
	threshold := opts.AutoMatchThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = m.autoThreshold
	}

	targets := opts.TargetSources
	if len(targets) == 0 {
		for _, source := range m.enabledSources {
			if source != primary.Source {
				targets = append(targets, source)
			}
		}
	}

	result := &CrossSourceResult{
		PrimarySource:   primary.Source,
		PrimarySourceID: primary.SourceID,
		Status:          make(map[metadata.Source]Status, len(targets)),
		Errors:          make(map[metadata.Source]string),
	}

	outcomes := make(chan sourceOutcome, len(targets))
	var wg sync.WaitGroup
	for _, target := range targets {
		if target == primary.Source {
			continue
		}
		result.Status[target] = StatusSearching
		wg.Add(1)
		go func(target metadata.Source) {
			defer wg.Done()
			outcomes <- m.searchSource(ctx, target, primary, threshold)
		}(target)
	}
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		result.Status[outcome.source] = outcome.status
		if outcome.err != nil {
			result.Errors[outcome.source] = outcome.err.Error()
		}
		if outcome.match != nil {
			result.Matches = append(result.Matches, *outcome.match)
		}
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Confidence > result.Matches[j].Confidence
	})
	return result
}

func (m *Matcher) searchSource(ctx context.Context, target metadata.Source, primary metadata.SeriesMetadata, threshold float64) sourceOutcome {
	provider, ok := m.registry.Get(target)
	if !ok {
		return sourceOutcome{source: target, status: StatusError, err: fmt.Errorf("no provider registered for %s", target)}
	}

	if availability := provider.CheckAvailability(ctx); !availability.Available {
		m.logger.Debug("source unavailable, skipping",
			logging.String(logging.FieldSource, string(target)),
			logging.String("detail", availability.Detail))
		return sourceOutcome{source: target, status: StatusSkipped}
	}

	candidates, err := provider.SearchSeries(ctx, metadata.SeriesQuery{
		Series:    primary.Name,
		Year:      primary.StartYear,
		Publisher: primary.Publisher,
	}, metadata.SearchOptions{Limit: searchLimit})
	if err != nil {
		m.logger.Warn("source search failed",
			logging.String(logging.FieldSource, string(target)),
			logging.Error(err))
		return sourceOutcome{source: target, status: StatusError, err: err}
	}
	if len(candidates) == 0 {
		return sourceOutcome{source: target, status: StatusNoMatch}
	}

	var best *SeriesMatch
	for _, candidate := range candidates {
		confidence, factors := ScoreSeriesMatch(primary, candidate)

		// Reject same-named series from a clearly different era.
		if factors.YearMatch == 0 && yearGapExceeded(primary.StartYear, candidate.StartYear) {
			m.logger.Debug("candidate rejected by year gap",
				logging.String(logging.FieldSource, string(target)),
				logging.String("candidate", candidate.Name),
				logging.Int("primary_year", primary.StartYear),
				logging.Int("candidate_year", candidate.StartYear))
			continue
		}

		m.logger.Debug("scored candidate",
			logging.String(logging.FieldSource, string(target)),
			logging.String("candidate", candidate.Name),
			logging.Float64("confidence", confidence))

		if best == nil || confidence > best.Confidence {
			best = &SeriesMatch{
				Candidate:  candidate,
				Confidence: confidence,
				Factors:    factors,
				AutoMatch:  confidence >= threshold,
			}
		}
	}
	if best == nil {
		return sourceOutcome{source: target, status: StatusNoMatch}
	}

	m.logger.Info("best candidate selected",
		logging.String(logging.FieldSource, string(target)),
		logging.String("candidate", best.Candidate.Name),
		logging.Float64("confidence", best.Confidence),
		logging.Bool("auto_match", best.AutoMatch))
	return sourceOutcome{source: target, status: StatusMatched, match: best}
}

func yearGapExceeded(a, b int) bool {
	if a == 0 || b == 0 {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff > maxYearGap
}
