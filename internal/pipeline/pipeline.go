// Package pipeline executes analysis runs. Stages run concurrently and
// independently; a stage failure costs only that stage's payload. The
// run finalizes by writing the aggregated report first and then
// compare-and-swapping the job terminal, so a terminal status is never
// observable without a retrievable report and a superseded run can
// never clobber a newer submission.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"convolens/internal/conversation"
	"convolens/internal/jobs"
	"convolens/internal/logging"
	"convolens/internal/queue"
	"convolens/internal/services"
	"convolens/internal/stage"
)

// ProgressNotifier receives snapshot updates for live observers. Calls
// must not block.
type ProgressNotifier interface {
	Publish(snapshot *jobs.ProgressSnapshot)
}

// Executor runs the stage registry against delivered submissions.
type Executor struct {
	catalog  *jobs.Catalog
	registry *stage.Registry
	notifier ProgressNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// New builds an executor. notifier may be nil.
func New(catalog *jobs.Catalog, registry *stage.Registry, notifier ProgressNotifier, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		catalog:  catalog,
		registry: registry,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
		now:      time.Now,
	}
}

// Run executes one delivery end to end. A nil return means the delivery
// is settled, including runs abandoned because the subject expired or a
// newer submission superseded this one. A non-nil return means the run
// could not reach a decision and may be redelivered.
func (e *Executor) Run(ctx context.Context, delivery queue.Delivery) error {
	logger := e.logger.With(
		logging.String(logging.FieldSubjectKey, delivery.SubjectKey),
		logging.String(logging.FieldTaskID, delivery.TaskID))

	job, err := e.catalog.GetJob(ctx, delivery.SubjectKey)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "pipeline", "run", "load subject record", err)
	}
	if job == nil {
		logger.Warn("subject expired before run started; abandoning")
		return nil
	}
	if job.TaskID != delivery.TaskID {
		logger.Info("run superseded by newer submission; abandoning")
		return nil
	}
	if job.Status != jobs.StatusProcessing {
		logger.Warn("subject no longer processing; abandoning",
			logging.String("status", string(job.Status)))
		return nil
	}

	startedAt := e.now().UTC()
	report := &jobs.AnalysisReport{
		TaskID:     delivery.TaskID,
		SubjectKey: delivery.SubjectKey,
		Results:    make(map[string]json.RawMessage),
		Failures:   make(map[string]string),
		StartedAt:  startedAt,
	}

	conv, err := conversation.ParseFile(job.StoredPath, job.Format, job.Language)
	if err != nil {
		// No stage can run without a transcript: the whole run fails,
		// but the failure itself is still a settled, reported outcome.
		logger.Error("transcript unusable", logging.Error(err))
		report.Failures["transcript"] = err.Error()
		report.Outcome = jobs.StatusFailed
		report.FinishedAt = e.now().UTC()
		return e.finalize(ctx, logger, job, report)
	}

	report.Outcome = e.runStages(ctx, logger, job, conv, report)
	report.FinishedAt = e.now().UTC()
	return e.finalize(ctx, logger, job, report)
}

// runStages executes every registered stage concurrently and returns
// the aggregate outcome.
func (e *Executor) runStages(ctx context.Context, logger *slog.Logger, job *jobs.ConversationJob, conv *conversation.Conversation, report *jobs.AnalysisReport) jobs.Status {
	handlers := e.registry.Handlers()

	snapshot := &jobs.ProgressSnapshot{
		SubjectKey: job.SubjectKey,
		TaskID:     job.TaskID,
		Stages:     make(map[string]string, len(handlers)),
		UpdatedAt:  e.now().UTC(),
	}
	for _, h := range handlers {
		snapshot.Stages[h.Name()] = jobs.StageStateRunning
	}
	e.publishProgress(ctx, snapshot)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h stage.Handler) {
			defer wg.Done()
			name := h.Name()
			stageCtx := services.WithStage(ctx, name)

			payload, err := h.Run(stageCtx, conv)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("stage failed",
					logging.String(logging.FieldStage, name), logging.Error(err))
				report.Failures[name] = err.Error()
				snapshot.Stages[name] = jobs.StageStateFailed
			} else {
				report.Results[name] = payload
				snapshot.Stages[name] = jobs.StageStateDone
			}
			snapshot.UpdatedAt = e.now().UTC()
			e.publishProgress(ctx, snapshot)
		}(h)
	}
	wg.Wait()

	return jobs.Outcome(len(report.Results), len(report.Failures))
}

// finalize writes the report and flips the job terminal. Write order is
// load-bearing: the report must be retrievable before the terminal
// status becomes observable.
func (e *Executor) finalize(ctx context.Context, logger *slog.Logger, job *jobs.ConversationJob, report *jobs.AnalysisReport) error {
	if err := e.catalog.PutReport(ctx, report); err != nil {
		return services.Wrap(services.ErrUnavailable, "pipeline", "finalize", "store report", err)
	}

	job.Status = report.Outcome
	job.UpdatedAt = report.FinishedAt
	swapped, err := e.catalog.SwapJob(ctx, job)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "pipeline", "finalize", "commit terminal status", err)
	}
	if !swapped {
		// A newer submission took the record mid-run. Its executor owns
		// the lifecycle now; this run's report stays parked under its
		// own task id until it expires.
		logger.Info("terminal swap lost; run superseded")
		return nil
	}

	if err := e.catalog.DeleteProgress(ctx, job.SubjectKey); err != nil {
		logger.Warn("clear progress snapshot", logging.Error(err))
	}

	logger.Info("run finished",
		logging.String("outcome", string(report.Outcome)),
		logging.Int("succeeded", len(report.Results)),
		logging.Int("failed", len(report.Failures)),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return nil
}

func (e *Executor) publishProgress(ctx context.Context, snapshot *jobs.ProgressSnapshot) {
	if err := e.catalog.PutProgress(ctx, snapshot); err != nil {
		e.logger.Warn("store progress snapshot", logging.Error(err))
	}
	if e.notifier != nil {
		e.notifier.Publish(cloneSnapshot(snapshot))
	}
}

func cloneSnapshot(snapshot *jobs.ProgressSnapshot) *jobs.ProgressSnapshot {
	clone := *snapshot
	clone.Stages = make(map[string]string, len(snapshot.Stages))
	for name, state := range snapshot.Stages {
		clone.Stages[name] = state
	}
	return &clone
}
