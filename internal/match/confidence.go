package match

import (
	"helixio/internal/metadata"
	"helixio/internal/textutil"
)

// Weights of the series-level confidence factors. They sum to 1.0.
const (
	weightTitle      = 0.35
	weightPublisher  = 0.20
	weightYear       = 0.20
	weightIssueCount = 0.10
	weightCreators   = 0.10
	weightAlias      = 0.05
)

// issueCountTolerance accepts issue counts within this fraction of the
// larger count, absorbing sources that disagree on annuals and specials.
const issueCountTolerance = 0.10

// creatorOverlapSaturation is the overlap count at which the creator
// factor reaches full weight.
const creatorOverlapSaturation = 3

// SeriesFactors is the per-factor breakdown behind a confidence score.
type SeriesFactors struct {
	TitleSimilarity float64 `json:"titleSimilarity"`
	PublisherMatch  bool    `json:"publisherMatch"`
	YearMatch       float64 `json:"yearMatch"`
	IssueCountMatch bool    `json:"issueCountMatch"`
	CreatorOverlap  float64 `json:"creatorOverlap"`
	AliasMatch      bool    `json:"aliasMatch"`
}

// ScoreSeriesMatch computes the weighted confidence that two series
// records from different sources describe the same real-world series.
// The result is always in [0,1].
func ScoreSeriesMatch(primary, candidate metadata.SeriesMetadata) (float64, SeriesFactors) {
	factors := SeriesFactors{
		TitleSimilarity: textutil.TitleSimilarity(primary.Name, candidate.Name),
		PublisherMatch:  PublishersMatch(primary.Publisher, candidate.Publisher),
		YearMatch:       yearFactor(primary.StartYear, candidate.StartYear),
		IssueCountMatch: issueCountsMatch(primary.IssueCount, candidate.IssueCount),
		CreatorOverlap:  creatorOverlap(primary.Creators, candidate.Creators),
		AliasMatch:      aliasMatch(primary, candidate),
	}

	confidence := weightTitle * factors.TitleSimilarity
	if factors.PublisherMatch {
		confidence += weightPublisher
	}
	confidence += weightYear * factors.YearMatch
	if factors.IssueCountMatch {
		confidence += weightIssueCount
	}
	confidence += weightCreators * factors.CreatorOverlap
	if factors.AliasMatch {
		confidence += weightAlias
	}
	return confidence, factors
}

// yearFactor awards full credit for an exact start-year match and half
// credit when the years are within one of each other.
func yearFactor(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1
	case diff <= 1:
		return 0.5
	default:
		return 0
	}
}

func issueCountsMatch(a, b int) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	larger := a
	if b > larger {
		larger = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= issueCountTolerance*float64(larger)
}

func creatorOverlap(a, b []metadata.Credit) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	names := make(map[string]struct{}, len(a))
	for _, credit := range a {
		if n := textutil.NormalizeName(credit.Name); n != "" {
			names[n] = struct{}{}
		}
	}
	overlap := 0
	seen := make(map[string]struct{}, len(b))
	for _, credit := range b {
		n := textutil.NormalizeName(credit.Name)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := names[n]; ok {
			overlap++
		}
	}
	score := float64(overlap) / creatorOverlapSaturation
	if score > 1 {
		return 1
	}
	return score
}

// aliasMatch reports whether either record's alias list normalizes to the
// other record's name.
func aliasMatch(primary, candidate metadata.SeriesMetadata) bool {
	primaryName := textutil.NormalizeTitle(primary.Name)
	candidateName := textutil.NormalizeTitle(candidate.Name)
	for _, alias := range candidate.Aliases {
		if n := textutil.NormalizeTitle(alias); n != "" && n == primaryName {
			return true
		}
	}
	for _, alias := range primary.Aliases {
		if n := textutil.NormalizeTitle(alias); n != "" && n == candidateName {
			return true
		}
	}
	return false
}
