package match

import (
	"context"
	"sort"
	"strings"

	"helixio/internal/logging"
	"helixio/internal/metadata"
	"helixio/internal/textutil"
)

// DefaultIssueThreshold is the minimum confidence for an accepted
// issue-level match.
const DefaultIssueThreshold = 0.7

// Weights of the issue-level confidence factors. They sum to 1.0.
// Page count is reserved: the factor is defined but no source exposes a
// comparable page count yet, so it always contributes zero.
const (
	weightIssueNumber = 0.50
	weightCoverDate   = 0.25
	weightIssueTitle  = 0.15
	weightPageCount   = 0.10
)

// IssueFactors is the per-factor breakdown behind an issue confidence score.
type IssueFactors struct {
	NumberMatch bool    `json:"numberMatch"`
	DateScore   float64 `json:"dateScore"`
	TitleScore  float64 `json:"titleScore"`
	PageScore   float64 `json:"pageScore"`
}

// IssueMatch is one scored issue candidate.
type IssueMatch struct {
	Candidate  metadata.IssueMetadata `json:"candidate"`
	Confidence float64                `json:"confidence"`
	Factors    IssueFactors           `json:"factors"`
}

// NormalizeIssueNumber canonicalizes an issue number for comparison:
// leading '#', surrounding whitespace, and leading zeros are stripped and
// the remainder is lowercased ("#03" and "3" compare equal).
func NormalizeIssueNumber(number string) string {
	n := strings.ToLower(strings.TrimSpace(number))
	n = strings.TrimPrefix(n, "#")
	n = strings.TrimSpace(n)
	trimmed := strings.TrimLeft(n, "0")
	if trimmed == "" && n != "" {
		return "0"
	}
	return trimmed
}

// ScoreIssueMatch computes the weighted confidence that two issue records
// describe the same physical issue. A mismatched issue number is a hard
// gate: the candidate scores zero regardless of the remaining factors.
func ScoreIssueMatch(primary, candidate metadata.IssueMetadata) (float64, IssueFactors) {
	factors := IssueFactors{
		NumberMatch: issueNumbersMatch(primary.Number, candidate.Number),
	}
	if !factors.NumberMatch {
		return 0, factors
	}

	factors.DateScore = coverDateFactor(primary, candidate)
	factors.TitleScore = issueTitleFactor(primary.Title, candidate.Title)

	confidence := weightIssueNumber
	confidence += weightCoverDate * factors.DateScore
	confidence += weightIssueTitle * factors.TitleScore
	confidence += weightPageCount * factors.PageScore
	return confidence, factors
}

// FindMatchingIssue returns the best candidate at or above the threshold,
// or nil when nothing qualifies.
func FindMatchingIssue(primary metadata.IssueMetadata, candidates []metadata.IssueMetadata, threshold float64) *IssueMatch {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultIssueThreshold
	}
	var best *IssueMatch
	for _, candidate := range candidates {
		confidence, factors := ScoreIssueMatch(primary, candidate)
		if confidence < threshold {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &IssueMatch{Candidate: candidate, Confidence: confidence, Factors: factors}
		}
	}
	return best
}

// MappedSeries names the counterpart of a series in one secondary source,
// as recorded by the series-level mapping cache.
type MappedSeries struct {
	Source   metadata.Source
	SeriesID string
}

// FindIssueCrossMatches locates the issue's counterpart in every mapped
// secondary series, returning at most one match per source sorted by
// confidence. Per-source failures are logged and skipped.
func (m *Matcher) FindIssueCrossMatches(ctx context.Context, primary metadata.IssueMetadata, mapped []MappedSeries, threshold float64) []IssueMatch {
	var matches []IssueMatch
	for _, series := range mapped {
		if series.Source == primary.Source {
			continue
		}
		provider, ok := m.registry.Get(series.Source)
		if !ok {
			continue
		}
		candidates, err := provider.SeriesIssues(ctx, series.SeriesID, metadata.IssueOptions{})
		if err != nil {
			m.logger.Warn("issue listing failed",
				logging.String(logging.FieldSource, string(series.Source)),
				logging.Error(err))
			continue
		}
		if best := FindMatchingIssue(primary, candidates, threshold); best != nil {
			matches = append(matches, *best)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

func issueNumbersMatch(a, b string) bool {
	na := NormalizeIssueNumber(a)
	nb := NormalizeIssueNumber(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// coverDateFactor awards full credit for an exact month and year, half
// credit for the same year within one month, and zero otherwise.
func coverDateFactor(a, b metadata.IssueMetadata) float64 {
	if a.CoverYear == 0 || b.CoverYear == 0 || a.CoverMonth == 0 || b.CoverMonth == 0 {
		return 0
	}
	if a.CoverYear == b.CoverYear && a.CoverMonth == b.CoverMonth {
		return 1
	}
	if a.CoverYear == b.CoverYear {
		diff := a.CoverMonth - b.CoverMonth
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			return 0.5
		}
	}
	return 0
}

// issueTitleFactor scores issue titles, treating two untitled issues as a
// neutral half-credit rather than a mismatch: many catalogs leave issue
// titles blank.
func issueTitleFactor(a, b string) float64 {
	if strings.TrimSpace(a) == "" && strings.TrimSpace(b) == "" {
		return 0.5
	}
	return textutil.TitleSimilarity(a, b)
}
