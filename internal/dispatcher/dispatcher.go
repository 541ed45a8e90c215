// Package dispatcher admits analysis submissions: it validates the
// subject's lifecycle state, issues the task id, records the task
// mapping, and hands the run to the delivery queue.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"convolens/internal/jobs"
	"convolens/internal/language"
	"convolens/internal/logging"
	"convolens/internal/queue"
	"convolens/internal/services"
)

// Dispatcher accepts or refuses analysis submissions.
type Dispatcher struct {
	catalog   *jobs.Catalog
	queue     *queue.Queue
	logger    *slog.Logger
	now       func() time.Time
	newTaskID func() string
}

// New builds a dispatcher over the catalog and delivery queue.
func New(catalog *jobs.Catalog, q *queue.Queue, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		catalog:   catalog,
		queue:     q,
		logger:    logger.With(logging.String(logging.FieldComponent, "dispatcher")),
		now:       time.Now,
		newTaskID: func() string { return uuid.New().String() },
	}
}

// Receipt reports an accepted submission.
type Receipt struct {
	TaskID     string
	SubjectKey string
}

// Submit starts an analysis run for the subject. An unknown or expired
// subject is not found. Only an uploaded subject is admissible without
// force; a processing or terminal subject is a conflict. A non-empty
// langHint overrides the job's language for this and later runs.
// Acceptance refreshes the subject's retention deadline.
func (d *Dispatcher) Submit(ctx context.Context, subjectKey, langHint string, force bool) (Receipt, error) {
	job, err := d.catalog.GetJob(ctx, subjectKey)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrUnavailable, "dispatcher", "submit",
			"load subject record", err)
	}
	if job == nil {
		return Receipt{}, services.Wrap(services.ErrNotFound, "dispatcher", "submit",
			fmt.Sprintf("no conversation found for subject %s", subjectKey), nil)
	}
	if !force && !admissible(job.Status) {
		return Receipt{}, services.Wrap(services.ErrConflict, "dispatcher", "submit",
			fmt.Sprintf("subject %s is %s; use force to re-analyze", subjectKey, job.Status.Display()), nil)
	}

	taskID := d.newTaskID()
	now := d.now().UTC()

	// The mapping goes in before the job flips to processing. A reader
	// holding the task id can then always resolve its subject, and a
	// lost admission race is undone by deleting the mapping.
	mapping := &jobs.TaskMapping{TaskID: taskID, SubjectKey: subjectKey, SubmittedAt: now}
	if err := d.catalog.PutMapping(ctx, mapping); err != nil {
		return Receipt{}, services.Wrap(services.ErrUnavailable, "dispatcher", "submit",
			"record task mapping", err)
	}

	prevStatus := job.Status
	prevTaskID := job.TaskID
	prevLanguage := job.Language
	job.Status = jobs.StatusProcessing
	job.TaskID = taskID
	job.UpdatedAt = now
	if langHint != "" {
		job.Language = language.Normalize(langHint, job.Language)
	}

	swapped, err := d.catalog.SwapJob(ctx, job)
	if err != nil {
		d.rollbackMapping(ctx, taskID)
		return Receipt{}, services.Wrap(services.ErrUnavailable, "dispatcher", "submit",
			"commit submission", err)
	}
	if !swapped {
		d.rollbackMapping(ctx, taskID)
		return Receipt{}, services.Wrap(services.ErrConflict, "dispatcher", "submit",
			fmt.Sprintf("subject %s changed concurrently; retry", subjectKey), nil)
	}

	// Re-submission is the only event that extends retention.
	if _, err := d.catalog.TouchJob(ctx, subjectKey); err != nil {
		d.logger.Warn("refresh retention deadline",
			logging.String(logging.FieldSubjectKey, subjectKey), logging.Error(err))
	}

	if err := d.queue.Enqueue(ctx, queue.Delivery{TaskID: taskID, SubjectKey: subjectKey}); err != nil {
		// Undo the admission so the subject is not stuck processing
		// with no worker ever picking it up.
		job.Status = prevStatus
		job.TaskID = prevTaskID
		job.Language = prevLanguage
		if _, revertErr := d.catalog.SwapJob(ctx, job); revertErr != nil {
			d.logger.Error("revert refused submission",
				logging.String(logging.FieldSubjectKey, subjectKey), logging.Error(revertErr))
		}
		d.rollbackMapping(ctx, taskID)
		return Receipt{}, err
	}

	d.logger.Info("submission accepted",
		logging.String(logging.FieldSubjectKey, subjectKey),
		logging.String(logging.FieldTaskID, taskID),
		logging.Bool("force", force))
	return Receipt{TaskID: taskID, SubjectKey: subjectKey}, nil
}

func (d *Dispatcher) rollbackMapping(ctx context.Context, taskID string) {
	if err := d.catalog.DeleteMapping(ctx, taskID); err != nil {
		d.logger.Warn("rollback task mapping",
			logging.String(logging.FieldTaskID, taskID), logging.Error(err))
	}
}

// Every terminal status, failed included, needs force to re-run.
func admissible(status jobs.Status) bool {
	return status == jobs.StatusUploaded
}
