package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"helixio/internal/config"
	"helixio/internal/library"
	"helixio/internal/logging"
	"helixio/internal/similarity"
	"helixio/internal/store"
)

// scheduler periodically runs incremental similarity jobs so library
// edits surface in recommendations without manual triggers.
type scheduler struct {
	library  *library.Service
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newScheduler(cfg *config.Config, svc *library.Service, logger *slog.Logger) *scheduler {
	interval := time.Duration(cfg.Similarity.IncrementalIntervalMinutes) * time.Minute
	return &scheduler{
		library:  svc,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		interval: interval,
	}
}

func (s *scheduler) start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("similarity scheduler disabled")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	go s.run(runCtx, done)
	s.logger.Info("similarity scheduler started", logging.Duration("interval", s.interval))
}

func (s *scheduler) stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *scheduler) tick(ctx context.Context) {
	result, err := s.library.RunSimilarityJob(ctx, store.JobTypeIncremental)
	if err != nil {
		if errors.Is(err, similarity.ErrJobAlreadyRunning) {
			s.logger.Debug("skipping scheduled run, job already in flight")
			return
		}
		s.logger.Error("scheduled similarity job failed", logging.Error(err))
		return
	}
	s.logger.Info("scheduled similarity job completed",
		logging.String(logging.FieldJobID, result.JobID),
		logging.Int64("pairs", result.PairsStored),
		logging.Duration("elapsed", result.Duration))
}
