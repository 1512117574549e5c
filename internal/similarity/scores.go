// Package similarity computes and maintains content-based series
// similarity scores over the local library.
package similarity

import (
	"helixio/internal/store"
	"helixio/internal/textutil"
)

// MinimumSimilarityThreshold is the admission gate for stored pairs.
// Pairs scoring below it are discarded rather than persisted.
const MinimumSimilarityThreshold = 0.1

// Weights of the similarity components. They sum to 1.0.
const (
	weightGenres     = 0.20
	weightCharacters = 0.25
	weightCreators   = 0.15
	weightTags       = 0.15
	weightTeams      = 0.10
	weightKeywords   = 0.10
	weightPublisher  = 0.05
)

// seriesTerms is the normalized set representation of one series, built
// once per series and reused across every pairing in a scan.
type seriesTerms struct {
	ID         string
	Genres     []string
	Tags       []string
	Characters []string
	Teams      []string
	Creators   []string
	Keywords   []string
	Publisher  string
}

// newSeriesTerms extracts and normalizes the comparable term sets from a
// series row. The creator set merges the general credits with the writer
// and penciller fields since sources file the same people under either.
func newSeriesTerms(series *store.Series) seriesTerms {
	creators := textutil.SplitList(series.Creators)
	creators = append(creators, textutil.SplitList(series.Writer)...)
	creators = append(creators, textutil.SplitList(series.Penciller)...)
	return seriesTerms{
		ID:         series.ID,
		Genres:     textutil.SplitList(series.Genres),
		Tags:       textutil.SplitList(series.Tags),
		Characters: textutil.SplitList(series.Characters),
		Teams:      textutil.SplitList(series.Teams),
		Creators:   dedupe(creators),
		Keywords:   textutil.Keywords(series.Summary),
		Publisher:  textutil.NormalizeTitle(series.Publisher),
	}
}

// scorePair computes the weighted similarity between two series. It
// returns nil when the combined score falls below the storage threshold.
func scorePair(a, b seriesTerms) *store.SeriesSimilarity {
	pair := &store.SeriesSimilarity{
		SourceSeriesID: a.ID,
		TargetSeriesID: b.ID,
		GenreScore:     textutil.Jaccard(a.Genres, b.Genres),
		TagScore:       textutil.Jaccard(a.Tags, b.Tags),
		CharacterScore: textutil.Jaccard(a.Characters, b.Characters),
		TeamScore:      textutil.Jaccard(a.Teams, b.Teams),
		CreatorScore:   textutil.Jaccard(a.Creators, b.Creators),
		KeywordScore:   textutil.Jaccard(a.Keywords, b.Keywords),
	}
	if a.Publisher != "" && a.Publisher == b.Publisher {
		pair.PublisherScore = 1
	}

	pair.SimilarityScore = weightGenres*pair.GenreScore +
		weightCharacters*pair.CharacterScore +
		weightCreators*pair.CreatorScore +
		weightTags*pair.TagScore +
		weightTeams*pair.TeamScore +
		weightKeywords*pair.KeywordScore +
		weightPublisher*pair.PublisherScore

	if pair.SimilarityScore < MinimumSimilarityThreshold {
		return nil
	}
	return pair
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
