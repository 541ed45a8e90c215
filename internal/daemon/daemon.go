package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"convolens/internal/analysis"
	"convolens/internal/api"
	"convolens/internal/config"
	"convolens/internal/dispatcher"
	"convolens/internal/jobs"
	"convolens/internal/logging"
	"convolens/internal/pipeline"
	"convolens/internal/progress"
	"convolens/internal/queue"
	"convolens/internal/reconciler"
	"convolens/internal/store"
	"convolens/internal/upload"
	"convolens/internal/workers"
)

// Daemon coordinates the background services and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	catalog    *jobs.Catalog
	queue      *queue.Queue
	hub        *progress.Hub
	pool       *workers.Pool
	dispatcher *dispatcher.Dispatcher
	uploads    *upload.Service
	reconciler *reconciler.Reconciler
	stages     []string

	apiSrv *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	registry, err := analysis.NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("build stage registry: %w", err)
	}

	catalog := jobs.NewCatalog(st, cfg.RetentionWindow())
	q := queue.New(cfg.Workflow.QueueCapacity, cfg.Workflow.MaxDeliveries, cfg.RetryInterval(), logger)
	hub := progress.NewHub(logger)
	executor := pipeline.New(catalog, registry, hub, logger)
	pool := workers.NewPool(q, executor, catalog, cfg.Workflow.WorkerCount, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "convolensd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		catalog:    catalog,
		queue:      q,
		hub:        hub,
		pool:       pool,
		dispatcher: dispatcher.New(catalog, q, logger),
		uploads:    upload.New(catalog, cfg.Paths.UploadDir, cfg.Analysis.DefaultLanguage, logger),
		reconciler: reconciler.New(catalog, logger),
		stages:     registry.Names(),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.apiSrv, err = newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Start acquires the daemon lock and launches the worker pool, the
// retention sweeper, and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another convolens daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.pool.Start(d.ctx)
	d.startSweeper(d.ctx)

	if d.apiSrv != nil {
		if err := d.apiSrv.start(d.ctx); err != nil {
			d.cancel()
			d.pool.Wait()
			d.wg.Wait()
			_ = d.lock.Unlock()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("convolens daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("workers", d.cfg.Workflow.WorkerCount))
	return nil
}

// startSweeper launches the periodic purge of expired store rows.
func (d *Daemon) startSweeper(ctx context.Context) {
	interval := d.cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := d.store.SweepExpired(ctx)
				if err != nil {
					if ctx.Err() == nil {
						d.logger.Warn("retention sweep failed", logging.Error(err))
					}
					continue
				}
				if removed > 0 {
					d.logger.Debug("retention sweep purged rows", logging.Int64("removed", removed))
				}
			}
		}
	}()
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	d.pool.Wait()
	d.wg.Wait()
	d.hub.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("convolens daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Uploads returns the transcript intake service.
func (d *Daemon) Uploads() *upload.Service {
	return d.uploads
}

// Dispatcher returns the submission dispatcher.
func (d *Daemon) Dispatcher() *dispatcher.Dispatcher {
	return d.dispatcher
}

// Reconciler returns the read-side query service.
func (d *Daemon) Reconciler() *reconciler.Reconciler {
	return d.reconciler
}

// Hub returns the progress broadcast hub.
func (d *Daemon) Hub() *progress.Hub {
	return d.hub
}

// APIAddr returns the bound HTTP API address, or empty when the API is
// disabled or the daemon has not started.
func (d *Daemon) APIAddr() string {
	return d.apiSrv.addr()
}

// Sweep purges expired store rows immediately, outside the regular
// sweeper cadence.
func (d *Daemon) Sweep(ctx context.Context) (int64, error) {
	return d.store.SweepExpired(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StorePath:    d.store.Path(),
		LockFilePath: d.lockPath,
		QueueDepth:   d.queue.Len(),
		Workers:      d.cfg.Workflow.WorkerCount,
		Stages:       d.stages,
	}
	summaries, err := d.reconciler.List(ctx, reconciler.ListFilter{})
	if err != nil {
		d.logger.Warn("status listing failed", logging.Error(err))
		return status
	}
	counts := make(map[string]int)
	for _, summary := range summaries {
		counts[string(summary.Status)]++
	}
	status.Conversations = counts
	return status
}
