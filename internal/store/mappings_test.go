package store_test

import (
	"context"
	"testing"

	"helixio/internal/metadata"
	"helixio/internal/store"
	"helixio/internal/testsupport"
)

func TestMappingsForNormalizesDirection(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mapping := &store.CrossSourceMapping{
		PrimarySource:   metadata.SourceComicVine,
		PrimarySourceID: "4050-1",
		MatchedSource:   metadata.SourceAniList,
		MatchedSourceID: "101",
		Confidence:      0.97,
		MatchMethod:     store.MatchMethodAuto,
	}
	if err := st.SaveMapping(ctx, mapping); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	// Query from the matched side: the stored row must come back flipped.
	mappings, err := st.MappingsFor(ctx, metadata.SourceAniList, "101")
	if err != nil {
		t.Fatalf("MappingsFor: %v", err)
	}
	if len(mappings) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(mappings))
	}
	got := mappings[0]
	if got.PrimarySource != metadata.SourceAniList || got.PrimarySourceID != "101" {
		t.Fatalf("queried record not on primary side: %+v", got)
	}
	if got.MatchedSource != metadata.SourceComicVine || got.MatchedSourceID != "4050-1" {
		t.Fatalf("counterpart not on matched side: %+v", got)
	}
	if got.Confidence != 0.97 {
		t.Fatalf("confidence = %v, want 0.97", got.Confidence)
	}
}

func TestSaveMappingUpsertsOnSourcePair(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := &store.CrossSourceMapping{
		PrimarySource:   metadata.SourceComicVine,
		PrimarySourceID: "4050-2",
		MatchedSource:   metadata.SourceJikan,
		MatchedSourceID: "old",
		Confidence:      0.8,
		MatchMethod:     store.MatchMethodAuto,
	}
	if err := st.SaveMapping(ctx, first); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	second := &store.CrossSourceMapping{
		PrimarySource:   metadata.SourceComicVine,
		PrimarySourceID: "4050-2",
		MatchedSource:   metadata.SourceJikan,
		MatchedSourceID: "new",
		Confidence:      0.99,
		MatchMethod:     store.MatchMethodUser,
		Verified:        true,
	}
	if err := st.SaveMapping(ctx, second); err != nil {
		t.Fatalf("SaveMapping upsert: %v", err)
	}

	mappings, err := st.MappingsFor(ctx, metadata.SourceComicVine, "4050-2")
	if err != nil {
		t.Fatalf("MappingsFor: %v", err)
	}
	if len(mappings) != 1 {
		t.Fatalf("expected upsert to keep 1 row, got %d", len(mappings))
	}
	got := mappings[0]
	if got.MatchedSourceID != "new" || got.MatchMethod != store.MatchMethodUser || !got.Verified {
		t.Fatalf("upsert did not replace fields: %+v", got)
	}
}

func TestMappingForSpecificTarget(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, target := range []struct {
		source metadata.Source
		id     string
	}{
		{metadata.SourceAniList, "a1"},
		{metadata.SourceJikan, "j1"},
	} {
		err := st.SaveMapping(ctx, &store.CrossSourceMapping{
			PrimarySource:   metadata.SourceComicVine,
			PrimarySourceID: "4050-3",
			MatchedSource:   target.source,
			MatchedSourceID: target.id,
			Confidence:      0.96,
			MatchMethod:     store.MatchMethodAuto,
		})
		if err != nil {
			t.Fatalf("SaveMapping: %v", err)
		}
	}

	got, err := st.MappingFor(ctx, metadata.SourceComicVine, "4050-3", metadata.SourceJikan)
	if err != nil {
		t.Fatalf("MappingFor: %v", err)
	}
	if got == nil || got.MatchedSourceID != "j1" {
		t.Fatalf("expected jikan mapping j1, got %+v", got)
	}

	missing, err := st.MappingFor(ctx, metadata.SourceComicVine, "4050-3", metadata.SourceGCD)
	if err != nil {
		t.Fatalf("MappingFor: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unmapped target, got %+v", missing)
	}
}

func TestInvalidateMappingsBothDirections(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	pairs := []*store.CrossSourceMapping{
		{
			PrimarySource: metadata.SourceComicVine, PrimarySourceID: "x",
			MatchedSource: metadata.SourceAniList, MatchedSourceID: "y",
			Confidence: 0.9, MatchMethod: store.MatchMethodAuto,
		},
		{
			PrimarySource: metadata.SourceJikan, PrimarySourceID: "z",
			MatchedSource: metadata.SourceComicVine, MatchedSourceID: "x",
			Confidence: 0.9, MatchMethod: store.MatchMethodAuto,
		},
	}
	for _, pair := range pairs {
		if err := st.SaveMapping(ctx, pair); err != nil {
			t.Fatalf("SaveMapping: %v", err)
		}
	}

	removed, err := st.InvalidateMappings(ctx, metadata.SourceComicVine, "x")
	if err != nil {
		t.Fatalf("InvalidateMappings: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed %d mappings, want 2", removed)
	}

	remaining, err := st.CountMappings(ctx)
	if err != nil {
		t.Fatalf("CountMappings: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected empty mapping table, found %d rows", remaining)
	}
}

func TestHasMappingsForAllSources(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	err := st.SaveMapping(ctx, &store.CrossSourceMapping{
		PrimarySource: metadata.SourceComicVine, PrimarySourceID: "s1",
		MatchedSource: metadata.SourceAniList, MatchedSourceID: "a1",
		Confidence: 0.95, MatchMethod: store.MatchMethodAuto,
	})
	if err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	targets := []metadata.Source{metadata.SourceComicVine, metadata.SourceAniList, metadata.SourceJikan}
	complete, err := st.HasMappingsForAllSources(ctx, metadata.SourceComicVine, "s1", targets)
	if err != nil {
		t.Fatalf("HasMappingsForAllSources: %v", err)
	}
	if complete {
		t.Fatal("expected incomplete coverage with jikan unmapped")
	}

	err = st.SaveMapping(ctx, &store.CrossSourceMapping{
		PrimarySource: metadata.SourceComicVine, PrimarySourceID: "s1",
		MatchedSource: metadata.SourceJikan, MatchedSourceID: "j1",
		Confidence: 0.95, MatchMethod: store.MatchMethodAuto,
	})
	if err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	complete, err = st.HasMappingsForAllSources(ctx, metadata.SourceComicVine, "s1", targets)
	if err != nil {
		t.Fatalf("HasMappingsForAllSources: %v", err)
	}
	if !complete {
		t.Fatal("expected complete coverage; the record's own source is excluded")
	}
}
