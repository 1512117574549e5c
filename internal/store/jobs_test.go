package store_test

import (
	"context"
	"testing"

	"helixio/internal/store"
	"helixio/internal/testsupport"
)

func TestJobLifecycleCompleted(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := st.CreateJob(ctx, store.JobTypeFull)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Status != store.JobStatusPending {
		t.Fatalf("new job status = %s, want pending", job.Status)
	}

	if err := st.MarkJobRunning(ctx, job.ID, 100); err != nil {
		t.Fatalf("MarkJobRunning: %v", err)
	}
	if err := st.UpdateJobProgress(ctx, job.ID, 50, "series-42"); err != nil {
		t.Fatalf("UpdateJobProgress: %v", err)
	}

	mid, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if mid.Status != store.JobStatusRunning {
		t.Fatalf("status = %s, want running", mid.Status)
	}
	if mid.TotalPairs != 100 || mid.ProcessedPairs != 50 {
		t.Fatalf("progress = %d/%d, want 50/100", mid.ProcessedPairs, mid.TotalPairs)
	}
	if mid.LastProcessedID != "series-42" {
		t.Fatalf("last processed id = %q, want series-42", mid.LastProcessedID)
	}
	if mid.StartedAt == nil {
		t.Fatal("expected started timestamp")
	}

	if err := st.MarkJobCompleted(ctx, job.ID, 100); err != nil {
		t.Fatalf("MarkJobCompleted: %v", err)
	}
	done, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if done.Status != store.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
}

func TestJobLifecycleFailed(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := st.CreateJob(ctx, store.JobTypeIncremental)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := st.MarkJobRunning(ctx, job.ID, 10); err != nil {
		t.Fatalf("MarkJobRunning: %v", err)
	}
	if err := st.MarkJobFailed(ctx, job.ID, "disk full"); err != nil {
		t.Fatalf("MarkJobFailed: %v", err)
	}

	failed, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if failed.Status != store.JobStatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if failed.ErrorMessage != "disk full" {
		t.Fatalf("error message = %q, want disk full", failed.ErrorMessage)
	}
	if failed.CompletedAt == nil {
		t.Fatal("expected completion timestamp on failure")
	}
}

func TestLastCompletedJobIgnoresFailures(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	none, err := st.LastCompletedJob(ctx)
	if err != nil {
		t.Fatalf("LastCompletedJob: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil with no jobs, got %+v", none)
	}

	good, err := st.CreateJob(ctx, store.JobTypeFull)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := st.MarkJobCompleted(ctx, good.ID, 5); err != nil {
		t.Fatalf("MarkJobCompleted: %v", err)
	}

	bad, err := st.CreateJob(ctx, store.JobTypeIncremental)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := st.MarkJobFailed(ctx, bad.ID, "boom"); err != nil {
		t.Fatalf("MarkJobFailed: %v", err)
	}

	last, err := st.LastCompletedJob(ctx)
	if err != nil {
		t.Fatalf("LastCompletedJob: %v", err)
	}
	if last == nil || last.ID != good.ID {
		t.Fatalf("expected completed job %s, got %+v", good.ID, last)
	}
}

func TestGetJobUnknownIDReturnsNil(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	job, err := st.GetJob(context.Background(), "no-such-job")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil, got %+v", job)
	}
}
