// Package metadata defines the normalized records exchanged between
// provider clients, the cross-source matcher, and the similarity engine.
package metadata

import "strings"

// Source identifies an external metadata catalog.
type Source string

const (
	SourceComicVine Source = "comicvine"
	SourceGCD       Source = "gcd"
	SourceAniList   Source = "anilist"
	SourceJikan     Source = "jikan"
)

var knownSources = map[Source]struct{}{
	SourceComicVine: {},
	SourceGCD:       {},
	SourceAniList:   {},
	SourceJikan:     {},
}

// ParseSource converts a string into a known Source.
func ParseSource(value string) (Source, bool) {
	normalized := Source(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := knownSources[normalized]
	return normalized, ok
}

// KnownSources returns the list of supported sources in a stable order.
func KnownSources() []Source {
	return []Source{SourceComicVine, SourceGCD, SourceAniList, SourceJikan}
}

// Credit names a creator and their role on a series or issue.
type Credit struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// SeriesMetadata is a series record as reported by a single source.
// It is ephemeral: fetched live from provider clients and never owned by
// the matcher.
type SeriesMetadata struct {
	Source     Source   `json:"source"`
	SourceID   string   `json:"sourceId"`
	Name       string   `json:"name"`
	Publisher  string   `json:"publisher,omitempty"`
	StartYear  int      `json:"startYear,omitempty"`
	IssueCount int      `json:"issueCount,omitempty"`
	Creators   []Credit `json:"creators,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Summary    string   `json:"summary,omitempty"`
}

// IssueMetadata is a single-issue record as reported by a source.
type IssueMetadata struct {
	Source     Source `json:"source"`
	SourceID   string `json:"sourceId"`
	SeriesID   string `json:"seriesId,omitempty"`
	Number     string `json:"number"`
	Title      string `json:"title,omitempty"`
	CoverYear  int    `json:"coverYear,omitempty"`
	CoverMonth int    `json:"coverMonth,omitempty"`
	PageCount  int    `json:"pageCount,omitempty"`
}

// SeriesQuery carries the search terms sent to a provider.
type SeriesQuery struct {
	Series    string
	Year      int
	Publisher string
}

// SearchOptions bounds a provider search.
type SearchOptions struct {
	Limit int
}

// IssueOptions bounds an issue listing request.
type IssueOptions struct {
	Limit int
}
