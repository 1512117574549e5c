package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"helixio/internal/logging"
	"helixio/internal/store"
)

// ErrJobAlreadyRunning is returned when a similarity job is requested
// while another one is still in flight.
var ErrJobAlreadyRunning = errors.New("similarity: a job is already running")

const (
	insertBatchSize  = 1000
	progressInterval = 500
)

// JobResult summarizes a finished similarity run. PairsProcessed counts
// every pair scored; PairsStored counts the subset that cleared the
// admission threshold and was written.
type JobResult struct {
	JobID          string          `json:"jobId"`
	Type           store.JobType   `json:"type"`
	Status         store.JobStatus `json:"status"`
	SeriesScanned  int             `json:"seriesScanned"`
	PairsProcessed int64           `json:"pairsProcessed"`
	PairsStored    int64           `json:"pairsStored"`
	Duration       time.Duration   `json:"duration"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
}

// runStats carries the counters a scan pass accumulates.
type runStats struct {
	processed int64
	stored    int64
	scanned   int
}

// Engine drives similarity computation against the store. At most one
// job runs at a time per engine.
type Engine struct {
	store   *store.Store
	logger  *slog.Logger
	running atomic.Bool
}

// NewEngine returns an engine backed by the given store.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{store: st, logger: logger}
}

// Running reports whether a job is currently in flight.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// RunJob executes a full or incremental similarity job. Failures are
// recorded on the job row and reflected in the result rather than left as
// a half-finished run.
func (e *Engine) RunJob(ctx context.Context, jobType store.JobType) (*JobResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrJobAlreadyRunning
	}
	defer e.running.Store(false)

	job, err := e.store.CreateJob(ctx, jobType)
	if err != nil {
		return nil, fmt.Errorf("create similarity job: %w", err)
	}
	return e.execute(ctx, job)
}

// StartJob reserves the engine, records a pending job row, and runs the
// scan on a background goroutine. Callers poll the returned job instead
// of waiting; the engine stays reserved until the goroutine finishes.
func (e *Engine) StartJob(ctx context.Context, jobType store.JobType) (*store.SimilarityJob, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrJobAlreadyRunning
	}
	job, err := e.store.CreateJob(ctx, jobType)
	if err != nil {
		e.running.Store(false)
		return nil, fmt.Errorf("create similarity job: %w", err)
	}
	go func() {
		defer e.running.Store(false)
		// execute records failures on the job row and logs them.
		_, _ = e.execute(ctx, job)
	}()
	return job, nil
}

func (e *Engine) execute(ctx context.Context, job *store.SimilarityJob) (*JobResult, error) {
	started := time.Now()
	result := &JobResult{JobID: job.ID, Type: job.Type}

	var stats runStats
	var err error
	switch job.Type {
	case store.JobTypeIncremental:
		stats, err = e.runIncremental(ctx, job)
	default:
		stats, err = e.runFull(ctx, job)
	}
	result.SeriesScanned = stats.scanned
	result.PairsProcessed = stats.processed
	result.PairsStored = stats.stored
	result.Duration = time.Since(started)

	if err != nil {
		result.Status = store.JobStatusFailed
		result.ErrorMessage = err.Error()
		if markErr := e.store.MarkJobFailed(ctx, job.ID, err.Error()); markErr != nil {
			e.logger.Error("failed to record job failure",
				logging.String(logging.FieldJobID, job.ID), logging.Error(markErr))
		}
		e.logger.Error("similarity job failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("type", string(job.Type)),
			logging.Error(err))
		return result, err
	}

	if err := e.store.MarkJobCompleted(ctx, job.ID, stats.processed); err != nil {
		return result, fmt.Errorf("complete similarity job: %w", err)
	}
	result.Status = store.JobStatusCompleted
	e.logger.Info("similarity job completed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("type", string(job.Type)),
		logging.Int("series", stats.scanned),
		logging.Int64("processed", stats.processed),
		logging.Int64("stored", stats.stored),
		logging.Duration("elapsed", result.Duration))
	return result, nil
}

// runFull discards all stored pairs and rescans the whole library.
func (e *Engine) runFull(ctx context.Context, job *store.SimilarityJob) (runStats, error) {
	var stats runStats
	if _, err := e.store.DeleteAllSimilarities(ctx); err != nil {
		return stats, fmt.Errorf("clear similarity table: %w", err)
	}

	series, err := e.store.ListSeries(ctx)
	if err != nil {
		return stats, fmt.Errorf("list series: %w", err)
	}
	stats.scanned = len(series)

	total := int64(len(series)) * int64(len(series)-1) / 2
	if err := e.store.MarkJobRunning(ctx, job.ID, total); err != nil {
		return stats, fmt.Errorf("start similarity job: %w", err)
	}

	terms := make([]seriesTerms, len(series))
	for i, s := range series {
		terms[i] = newSeriesTerms(s)
	}

	var batch []*store.SeriesSimilarity
	for i := range terms {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for j := i + 1; j < len(terms); j++ {
			stats.processed++
			if pair := scorePair(terms[i], terms[j]); pair != nil {
				batch = append(batch, pair)
				stats.stored++
			}
			if len(batch) >= insertBatchSize {
				if err := e.store.InsertSimilarityBatch(ctx, batch); err != nil {
					return stats, fmt.Errorf("insert similarity batch: %w", err)
				}
				batch = batch[:0]
			}
			if stats.processed%progressInterval == 0 {
				if err := e.store.UpdateJobProgress(ctx, job.ID, stats.processed, terms[i].ID); err != nil {
					return stats, fmt.Errorf("update job progress: %w", err)
				}
			}
		}
	}
	if len(batch) > 0 {
		if err := e.store.InsertSimilarityBatch(ctx, batch); err != nil {
			return stats, fmt.Errorf("insert similarity batch: %w", err)
		}
	}
	return stats, nil
}

// runIncremental rescores only series modified since the last completed
// job, each against the whole corpus. With no prior completed job the
// cutoff is the zero time, which degrades to a full-coverage pass.
func (e *Engine) runIncremental(ctx context.Context, job *store.SimilarityJob) (runStats, error) {
	var stats runStats

	var cutoff time.Time
	if last, err := e.store.LastCompletedJob(ctx); err != nil {
		return stats, fmt.Errorf("look up last completed job: %w", err)
	} else if last != nil && last.CompletedAt != nil {
		cutoff = *last.CompletedAt
	}

	changed, err := e.store.ListSeriesUpdatedSince(ctx, cutoff)
	if err != nil {
		return stats, fmt.Errorf("list changed series: %w", err)
	}
	if len(changed) == 0 {
		if err := e.store.MarkJobRunning(ctx, job.ID, 0); err != nil {
			return stats, fmt.Errorf("start similarity job: %w", err)
		}
		return stats, nil
	}
	stats.scanned = len(changed)

	corpus, err := e.store.ListSeries(ctx)
	if err != nil {
		return stats, fmt.Errorf("list series: %w", err)
	}

	// Each changed-changed pair is owned by one side, so subtract the
	// duplicates from the changed-times-corpus estimate.
	total := int64(len(changed))*int64(len(corpus)-1) - int64(len(changed))*int64(len(changed)-1)/2
	if err := e.store.MarkJobRunning(ctx, job.ID, total); err != nil {
		return stats, fmt.Errorf("start similarity job: %w", err)
	}

	corpusTerms := make([]seriesTerms, len(corpus))
	for i, s := range corpus {
		corpusTerms[i] = newSeriesTerms(s)
	}
	changedSet := make(map[string]struct{}, len(changed))
	for _, s := range changed {
		changedSet[s.ID] = struct{}{}
	}

	var batch []*store.SeriesSimilarity
	for _, s := range changed {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, err := e.store.DeleteSimilaritiesFor(ctx, s.ID); err != nil {
			return stats, fmt.Errorf("purge stale pairs for %s: %w", s.ID, err)
		}
		subject := newSeriesTerms(s)
		for _, other := range corpusTerms {
			if other.ID == s.ID {
				continue
			}
			// A changed-changed pair would otherwise be scored once per
			// side. Let the lexicographically smaller side own it.
			if _, ok := changedSet[other.ID]; ok && other.ID < s.ID {
				continue
			}
			stats.processed++
			if pair := scorePair(subject, other); pair != nil {
				batch = append(batch, pair)
				stats.stored++
			}
			if len(batch) >= insertBatchSize {
				if err := e.store.InsertSimilarityBatch(ctx, batch); err != nil {
					return stats, fmt.Errorf("insert similarity batch: %w", err)
				}
				batch = batch[:0]
			}
			if stats.processed%progressInterval == 0 {
				if err := e.store.UpdateJobProgress(ctx, job.ID, stats.processed, s.ID); err != nil {
					return stats, fmt.Errorf("update job progress: %w", err)
				}
			}
		}
	}
	if len(batch) > 0 {
		if err := e.store.InsertSimilarityBatch(ctx, batch); err != nil {
			return stats, fmt.Errorf("insert similarity batch: %w", err)
		}
	}
	return stats, nil
}

// UpdateSeriesSimilarities rescores a single series against the corpus,
// or purges its pairs when the series is gone or soft-deleted.
func (e *Engine) UpdateSeriesSimilarities(ctx context.Context, seriesID string) (int64, error) {
	series, err := e.store.GetSeries(ctx, seriesID)
	if err != nil {
		return 0, fmt.Errorf("load series %s: %w", seriesID, err)
	}
	if _, err := e.store.DeleteSimilaritiesFor(ctx, seriesID); err != nil {
		return 0, fmt.Errorf("purge pairs for %s: %w", seriesID, err)
	}
	if series == nil || series.Deleted() {
		return 0, nil
	}

	corpus, err := e.store.ListSeries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list series: %w", err)
	}

	subject := newSeriesTerms(series)
	var (
		batch  []*store.SeriesSimilarity
		stored int64
	)
	for _, other := range corpus {
		if other.ID == seriesID {
			continue
		}
		if pair := scorePair(subject, newSeriesTerms(other)); pair != nil {
			batch = append(batch, pair)
			stored++
		}
		if len(batch) >= insertBatchSize {
			if err := e.store.InsertSimilarityBatch(ctx, batch); err != nil {
				return stored, fmt.Errorf("insert similarity batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := e.store.InsertSimilarityBatch(ctx, batch); err != nil {
			return stored, fmt.Errorf("insert similarity batch: %w", err)
		}
	}
	return stored, nil
}

// SimilarSeries returns the highest-scoring neighbors of a series.
func (e *Engine) SimilarSeries(ctx context.Context, seriesID string, limit int) ([]*store.SimilarEntry, error) {
	return e.store.SimilarSeries(ctx, seriesID, limit)
}

// Stats reports aggregate similarity table statistics.
func (e *Engine) Stats(ctx context.Context) (store.SimilarityStats, error) {
	return e.store.SimilarityTableStats(ctx)
}
