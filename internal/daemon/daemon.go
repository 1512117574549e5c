package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"helixio/internal/config"
	"helixio/internal/library"
	"helixio/internal/logging"
	"helixio/internal/store"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a file lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	library *library.Service

	lockPath string
	lock     *flock.Flock

	api       *apiServer
	scheduler *scheduler

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool          `json:"running"`
	DatabasePath  string        `json:"databasePath"`
	LockFilePath  string        `json:"lockFilePath"`
	APIBind       string        `json:"apiBind"`
	Library       library.Stats `json:"library"`
	SchedulerIdle bool          `json:"schedulerIdle"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, svc *library.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || svc == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, library service, and logger")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		library:  svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	d.scheduler = newScheduler(cfg, svc, logger)
	return d, nil
}

// Start acquires the instance lock and launches the API server and the
// similarity scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another helixio daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start api server: %w", err)
		}
	}
	d.scheduler.start(d.ctx)

	d.running.Store(true)
	d.logger.Info("helixio daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("helixio daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Wait blocks until the daemon context is canceled.
func (d *Daemon) Wait() {
	if d.ctx != nil {
		<-d.ctx.Done()
	}
}

// Library exposes the library service for in-process callers.
func (d *Daemon) Library() *library.Service {
	return d.library
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.library.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to collect library stats", logging.Error(err))
	}
	return Status{
		Running:       d.running.Load(),
		DatabasePath:  d.cfg.DatabasePath(),
		LockFilePath:  d.lockPath,
		APIBind:       d.cfg.Paths.APIBind,
		Library:       stats,
		SchedulerIdle: !stats.JobRunning,
	}
}
