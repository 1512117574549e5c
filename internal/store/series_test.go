package store_test

import (
	"context"
	"testing"
	"time"

	"helixio/internal/store"
	"helixio/internal/testsupport"
)

func TestUpsertSeriesRefreshesUpdatedAt(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	series := &store.Series{ID: "s1", Name: "Paper Girls", Publisher: "Image Comics"}
	if err := st.UpsertSeries(ctx, series); err != nil {
		t.Fatalf("UpsertSeries: %v", err)
	}
	firstUpdated := series.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	series.Publisher = "Image"
	if err := st.UpsertSeries(ctx, series); err != nil {
		t.Fatalf("UpsertSeries update: %v", err)
	}

	got, err := st.GetSeries(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if got == nil {
		t.Fatal("series missing after upsert")
	}
	if got.Publisher != "Image" {
		t.Fatalf("publisher = %q, want updated value", got.Publisher)
	}
	if !got.UpdatedAt.After(firstUpdated) {
		t.Fatalf("updated_at %v not refreshed past %v", got.UpdatedAt, firstUpdated)
	}
}

func TestListSeriesUpdatedSinceIsStrict(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	series := &store.Series{ID: "s2", Name: "Lumberjanes"}
	if err := st.UpsertSeries(ctx, series); err != nil {
		t.Fatalf("UpsertSeries: %v", err)
	}

	before, err := st.ListSeriesUpdatedSince(ctx, series.UpdatedAt.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ListSeriesUpdatedSince: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("expected 1 series for cutoff before the update, got %d", len(before))
	}

	// A cutoff equal to the row's own timestamp must exclude it.
	atCutoff, err := st.ListSeriesUpdatedSince(ctx, series.UpdatedAt)
	if err != nil {
		t.Fatalf("ListSeriesUpdatedSince: %v", err)
	}
	if len(atCutoff) != 0 {
		t.Fatalf("expected strict comparison to exclude the row, got %d", len(atCutoff))
	}

	after, err := st.ListSeriesUpdatedSince(ctx, series.UpdatedAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListSeriesUpdatedSince: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected no series for later cutoff, got %d", len(after))
	}
}

func TestSoftDeleteSeries(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := st.UpsertSeries(ctx, &store.Series{ID: "s3", Name: "Sandman"}); err != nil {
		t.Fatalf("UpsertSeries: %v", err)
	}

	deleted, err := st.SoftDeleteSeries(ctx, "s3")
	if err != nil {
		t.Fatalf("SoftDeleteSeries: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report a change")
	}

	// Row survives but is hidden from listings and counts.
	got, err := st.GetSeries(ctx, "s3")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if got == nil || !got.Deleted() {
		t.Fatalf("expected soft-deleted row, got %+v", got)
	}

	listed, err := st.ListSeries(ctx)
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("deleted series still listed: %d rows", len(listed))
	}

	count, err := st.CountSeries(ctx)
	if err != nil {
		t.Fatalf("CountSeries: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}

	again, err := st.SoftDeleteSeries(ctx, "s3")
	if err != nil {
		t.Fatalf("SoftDeleteSeries repeat: %v", err)
	}
	if again {
		t.Fatal("second delete should be a no-op")
	}
}

func TestGetSeriesUnknownIDReturnsNil(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	got, err := st.GetSeries(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
