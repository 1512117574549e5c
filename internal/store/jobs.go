package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const jobColumns = "id, job_type, status, total_pairs, processed_pairs, last_processed_id, error_message, created_at, started_at, completed_at"

// CreateJob inserts a new pending similarity job and returns it.
func (s *Store) CreateJob(ctx context.Context, jobType JobType) (*SimilarityJob, error) {
	job := &SimilarityJob{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO similarity_jobs (id, job_type, status, total_pairs, processed_pairs, created_at)
         VALUES (?, ?, ?, 0, 0, ?)`,
		job.ID,
		string(job.Type),
		string(job.Status),
		formatTime(job.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// MarkJobRunning transitions a job to running and records the start time.
func (s *Store) MarkJobRunning(ctx context.Context, id string, totalPairs int64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE similarity_jobs SET status = ?, total_pairs = ?, started_at = ? WHERE id = ?`,
		string(JobStatusRunning),
		totalPairs,
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	return nil
}

// UpdateJobProgress persists the processed-pair counter and resume marker.
func (s *Store) UpdateJobProgress(ctx context.Context, id string, processedPairs int64, lastProcessedID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE similarity_jobs SET processed_pairs = ?, last_processed_id = ? WHERE id = ?`,
		processedPairs,
		nullableString(lastProcessedID),
		id,
	)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// MarkJobCompleted finalizes a successful job.
func (s *Store) MarkJobCompleted(ctx context.Context, id string, processedPairs int64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE similarity_jobs SET status = ?, processed_pairs = ?, completed_at = ? WHERE id = ?`,
		string(JobStatusCompleted),
		processedPairs,
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	return nil
}

// MarkJobFailed finalizes a failed job with its error message.
func (s *Store) MarkJobFailed(ctx context.Context, id string, message string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE similarity_jobs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		string(JobStatusFailed),
		nullableString(message),
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// GetJob fetches a similarity job by identifier.
func (s *Store) GetJob(ctx context.Context, id string) (*SimilarityJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM similarity_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*SimilarityJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM similarity_jobs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*SimilarityJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// LastCompletedJob returns the most recently completed job of any type, or
// nil when no job has completed yet.
func (s *Store) LastCompletedJob(ctx context.Context) (*SimilarityJob, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM similarity_jobs WHERE status = ? ORDER BY completed_at DESC LIMIT 1`,
		string(JobStatusCompleted),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completed job: %w", err)
	}
	return job, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*SimilarityJob, error) {
	var (
		id           string
		jobType      string
		status       string
		totalPairs   int64
		processed    int64
		lastID       sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobType,
		&status,
		&totalPairs,
		&processed,
		&lastID,
		&errorMessage,
		&createdRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &SimilarityJob{
		ID:              id,
		Type:            JobType(jobType),
		Status:          JobStatus(status),
		TotalPairs:      totalPairs,
		ProcessedPairs:  processed,
		LastProcessedID: lastID.String,
		ErrorMessage:    errorMessage.String,
		StartedAt:       parseNullableTime(startedRaw),
		CompletedAt:     parseNullableTime(completedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	return job, nil
}
