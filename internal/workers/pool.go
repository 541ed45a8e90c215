// Package workers runs the pool of goroutines that drain the delivery
// queue into the pipeline executor.
package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"convolens/internal/jobs"
	"convolens/internal/logging"
	"convolens/internal/queue"
)

// Runner executes one delivery. Satisfied by the pipeline executor.
type Runner interface {
	Run(ctx context.Context, delivery queue.Delivery) error
}

// Pool drains the queue with a fixed number of workers.
type Pool struct {
	queue   *queue.Queue
	runner  Runner
	catalog *jobs.Catalog
	count   int
	logger  *slog.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewPool builds a pool of count workers. A count of zero means no
// workers; the config layer enforces a sensible floor for daemons.
func NewPool(q *queue.Queue, runner Runner, catalog *jobs.Catalog, count int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = logging.NewNop()
	}
	if count < 0 {
		count = 0
	}
	return &Pool{
		queue:   q,
		runner:  runner,
		catalog: catalog,
		count:   count,
		logger:  logger.With(logging.String(logging.FieldComponent, "workers")),
		now:     time.Now,
	}
}

// Start launches the workers. They stop when ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.work(ctx, i+1)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With(logging.Int("worker", id))
	logger.Debug("worker started")

	for {
		delivery, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Debug("worker stopping")
				return
			}
			logger.Error("dequeue", logging.Error(err))
			continue
		}

		runErr := p.runner.Run(ctx, delivery)
		if runErr == nil {
			continue
		}
		logger.Warn("run did not settle",
			logging.String(logging.FieldTaskID, delivery.TaskID),
			logging.Int("attempt", delivery.Attempt),
			logging.Error(runErr))
		if !p.queue.Requeue(ctx, delivery) {
			p.abandon(ctx, logger, delivery, runErr)
		}
	}
}

// abandon settles a delivery whose budget is spent: the run is recorded
// as failed so the subject does not sit in processing until retention
// lapses. The report still lands before the terminal flip.
func (p *Pool) abandon(ctx context.Context, logger *slog.Logger, delivery queue.Delivery, runErr error) {
	job, err := p.catalog.GetJob(ctx, delivery.SubjectKey)
	if err != nil || job == nil {
		logger.Error("abandon: subject unavailable", logging.Error(err))
		return
	}
	if job.TaskID != delivery.TaskID || job.Status != jobs.StatusProcessing {
		return
	}

	now := p.now().UTC()
	report := &jobs.AnalysisReport{
		TaskID:     delivery.TaskID,
		SubjectKey: delivery.SubjectKey,
		Outcome:    jobs.StatusFailed,
		Failures:   map[string]string{"pipeline": runErr.Error()},
		StartedAt:  now,
		FinishedAt: now,
	}
	if err := p.catalog.PutReport(ctx, report); err != nil {
		logger.Error("abandon: store report", logging.Error(err))
		return
	}
	job.Status = jobs.StatusFailed
	job.UpdatedAt = now
	if swapped, err := p.catalog.SwapJob(ctx, job); err != nil || !swapped {
		logger.Error("abandon: terminal swap",
			logging.Bool("swapped", swapped), logging.Error(err))
		return
	}
	logger.Warn("delivery abandoned as failed",
		logging.String(logging.FieldTaskID, delivery.TaskID))
}
