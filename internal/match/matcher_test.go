package match

import (
	"context"
	"errors"
	"testing"

	"helixio/internal/logging"
	"helixio/internal/metadata"
	"helixio/internal/providers"
)

type fakeProvider struct {
	source      metadata.Source
	available   bool
	series      []metadata.SeriesMetadata
	issues      []metadata.IssueMetadata
	searchErr   error
	issuesErr   error
	searchCalls int
}

func (f *fakeProvider) Source() metadata.Source { return f.source }

func (f *fakeProvider) CheckAvailability(ctx context.Context) providers.Availability {
	return providers.Availability{Available: f.available}
}

func (f *fakeProvider) SearchSeries(ctx context.Context, query metadata.SeriesQuery, opts metadata.SearchOptions) ([]metadata.SeriesMetadata, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.series, nil
}

func (f *fakeProvider) SeriesIssues(ctx context.Context, seriesID string, opts metadata.IssueOptions) ([]metadata.IssueMetadata, error) {
	if f.issuesErr != nil {
		return nil, f.issuesErr
	}
	return f.issues, nil
}

func newTestMatcher(t *testing.T, fakes ...*fakeProvider) *Matcher {
	t.Helper()
	registry := providers.NewRegistry()
	sources := make([]metadata.Source, 0, len(fakes)+1)
	sources = append(sources, metadata.SourceComicVine)
	for _, fake := range fakes {
		registry.Register(fake)
		sources = append(sources, fake.source)
	}
	return New(registry, sources, DefaultAutoMatchThreshold, logging.NewNop())
}

func TestFindCrossSourceMatchesFansOutToAllTargets(t *testing.T) {
	anilist := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		series: []metadata.SeriesMetadata{{
			Source: metadata.SourceAniList, SourceID: "101",
			Name: "Berserk", Publisher: "Dark Horse Comics", StartYear: 1989,
		}},
	}
	jikan := &fakeProvider{
		source:    metadata.SourceJikan,
		available: true,
		series: []metadata.SeriesMetadata{{
			Source: metadata.SourceJikan, SourceID: "2",
			Name: "Berserk", Publisher: "Dark Horse", StartYear: 1989,
		}},
	}
	matcher := newTestMatcher(t, anilist, jikan)

	primary := metadata.SeriesMetadata{
		Source: metadata.SourceComicVine, SourceID: "4050-1",
		Name: "Berserk", Publisher: "Dark Horse Comics", StartYear: 1989,
	}
	result := matcher.FindCrossSourceMatches(context.Background(), primary, Options{})

	if anilist.searchCalls != 1 || jikan.searchCalls != 1 {
		t.Fatalf("expected one search per target, got %d/%d", anilist.searchCalls, jikan.searchCalls)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Status[metadata.SourceAniList] != StatusMatched {
		t.Fatalf("anilist status = %s, want matched", result.Status[metadata.SourceAniList])
	}
	if result.Status[metadata.SourceJikan] != StatusMatched {
		t.Fatalf("jikan status = %s, want matched", result.Status[metadata.SourceJikan])
	}
	// Primary source is never searched.
	if _, ok := result.Status[metadata.SourceComicVine]; ok {
		t.Fatal("primary source should not appear in the status map")
	}
}

func TestFindCrossSourceMatchesSortsByConfidence(t *testing.T) {
	strong := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		series: []metadata.SeriesMetadata{{
			Source: metadata.SourceAniList, SourceID: "1",
			Name: "Monster", Publisher: "Viz Media", StartYear: 1994, IssueCount: 18,
		}},
	}
	weak := &fakeProvider{
		source:    metadata.SourceJikan,
		available: true,
		series: []metadata.SeriesMetadata{{
			Source: metadata.SourceJikan, SourceID: "2",
			Name: "Monster Club", StartYear: 1994,
		}},
	}
	matcher := newTestMatcher(t, strong, weak)

	primary := metadata.SeriesMetadata{
		Source: metadata.SourceComicVine, SourceID: "10",
		Name: "Monster", Publisher: "Viz", StartYear: 1994, IssueCount: 18,
	}
	result := matcher.FindCrossSourceMatches(context.Background(), primary, Options{})

	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].Candidate.Source != metadata.SourceAniList {
		t.Fatalf("expected strongest match first, got %s", result.Matches[0].Candidate.Source)
	}
	if result.Matches[0].Confidence < result.Matches[1].Confidence {
		t.Fatal("matches not sorted by descending confidence")
	}
}

func TestFindCrossSourceMatchesIsolatesSourceFailures(t *testing.T) {
	failing := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		searchErr: errors.New("upstream timeout"),
	}
	healthy := &fakeProvider{
		source:    metadata.SourceJikan,
		available: true,
		series: []metadata.SeriesMetadata{{
			Source: metadata.SourceJikan, SourceID: "7",
			Name: "Pluto", Publisher: "Viz Media", StartYear: 2003,
		}},
	}
	matcher := newTestMatcher(t, failing, healthy)

	primary := metadata.SeriesMetadata{
		Source: metadata.SourceComicVine, Name: "Pluto", Publisher: "Viz", StartYear: 2003,
	}
	result := matcher.FindCrossSourceMatches(context.Background(), primary, Options{})

	if result.Status[metadata.SourceAniList] != StatusError {
		t.Fatalf("failing source status = %s, want error", result.Status[metadata.SourceAniList])
	}
	if result.Errors[metadata.SourceAniList] == "" {
		t.Fatal("expected error detail for failing source")
	}
	if result.Status[metadata.SourceJikan] != StatusMatched {
		t.Fatalf("healthy source status = %s, want matched", result.Status[metadata.SourceJikan])
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
}

func TestFindCrossSourceMatchesSkipsUnavailableSource(t *testing.T) {
	offline := &fakeProvider{source: metadata.SourceAniList}
	matcher := newTestMatcher(t, offline)

	primary := metadata.SeriesMetadata{Source: metadata.SourceComicVine, Name: "Akira"}
	result := matcher.FindCrossSourceMatches(context.Background(), primary, Options{})

	if result.Status[metadata.SourceAniList] != StatusSkipped {
		t.Fatalf("status = %s, want skipped", result.Status[metadata.SourceAniList])
	}
	if offline.searchCalls != 0 {
		t.Fatalf("unavailable source was searched %d times", offline.searchCalls)
	}
}

func TestFindCrossSourceMatchesRejectsYearGapWithoutEvidence(t *testing.T) {
	reboot := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		series: []metadata.SeriesMetadata{{
			Source: metadata.SourceAniList, SourceID: "55",
			Name: "Blue Beetle", StartYear: 2021,
		}},
	}
	matcher := newTestMatcher(t, reboot)

	primary := metadata.SeriesMetadata{
		Source: metadata.SourceComicVine, Name: "Blue Beetle", StartYear: 2011,
	}
	result := matcher.FindCrossSourceMatches(context.Background(), primary, Options{})

	if result.Status[metadata.SourceAniList] != StatusNoMatch {
		t.Fatalf("status = %s, want no_match after year-gap rejection", result.Status[metadata.SourceAniList])
	}
	if len(result.Matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(result.Matches))
	}
}

func TestFindCrossSourceMatchesAutoMatchThreshold(t *testing.T) {
	identical := metadata.SeriesMetadata{
		Source: metadata.SourceAniList, SourceID: "9",
		Name: "Saga", Publisher: "Image Comics", StartYear: 2012, IssueCount: 66,
		Creators: []metadata.Credit{
			{Name: "Brian K. Vaughan"}, {Name: "Fiona Staples"}, {Name: "Fonografiks"},
		},
		Aliases: []string{"Saga"},
	}
	provider := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		series:    []metadata.SeriesMetadata{identical},
	}
	matcher := newTestMatcher(t, provider)

	primary := identical
	primary.Source = metadata.SourceComicVine
	primary.SourceID = "4050-2"

	result := matcher.FindCrossSourceMatches(context.Background(), primary, Options{})
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if !result.Matches[0].AutoMatch {
		t.Fatalf("confidence %v should auto-match at default threshold", result.Matches[0].Confidence)
	}
}

func TestFindIssueCrossMatchesOneBestPerSource(t *testing.T) {
	anilist := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		issues: []metadata.IssueMetadata{
			{Source: metadata.SourceAniList, SourceID: "i1", Number: "3", Title: "Chapter Three", CoverYear: 2016, CoverMonth: 4},
			{Source: metadata.SourceAniList, SourceID: "i2", Number: "4", Title: "Chapter Four", CoverYear: 2016, CoverMonth: 5},
		},
	}
	matcher := newTestMatcher(t, anilist)

	primary := metadata.IssueMetadata{
		Source: metadata.SourceComicVine, SeriesID: "4050-3",
		Number: "#03", Title: "Chapter Three", CoverYear: 2016, CoverMonth: 4,
	}
	mapped := []MappedSeries{{Source: metadata.SourceAniList, SeriesID: "101"}}

	matches := matcher.FindIssueCrossMatches(context.Background(), primary, mapped, 0.7)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Candidate.SourceID != "i1" {
		t.Fatalf("expected issue i1, got %s", matches[0].Candidate.SourceID)
	}
}

func TestFindIssueCrossMatchesSkipsFailingSource(t *testing.T) {
	broken := &fakeProvider{
		source:    metadata.SourceAniList,
		available: true,
		issuesErr: errors.New("listing failed"),
	}
	matcher := newTestMatcher(t, broken)

	primary := metadata.IssueMetadata{Source: metadata.SourceComicVine, Number: "1"}
	mapped := []MappedSeries{{Source: metadata.SourceAniList, SeriesID: "101"}}

	if matches := matcher.FindIssueCrossMatches(context.Background(), primary, mapped, 0.7); len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}
