// Package reconciler answers status and result queries. It resolves a
// task id through its mapping, reads the subject record, and reconciles
// the two into a single authoritative view: the job record always wins
// over anything a stale observer might hold.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"convolens/internal/jobs"
	"convolens/internal/language"
	"convolens/internal/logging"
	"convolens/internal/services"
)

// Reconciler serves read-side queries over the catalog.
type Reconciler struct {
	catalog *jobs.Catalog
	logger  *slog.Logger
}

// New builds a reconciler.
func New(catalog *jobs.Catalog, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		catalog: catalog,
		logger:  logger.With(logging.String(logging.FieldComponent, "reconciler")),
	}
}

// StatusView is the reconciled lifecycle answer for one task id.
type StatusView struct {
	TaskID     string
	SubjectKey string
	FileName   string
	Status     jobs.Status
	Terminal   bool
	// Superseded is set when a newer submission owns the subject, in
	// which case CurrentTaskID names it.
	Superseded    bool
	CurrentTaskID string
	Progress      *jobs.ProgressSnapshot
	UpdatedAt     time.Time
}

// Status resolves the lifecycle state for a task id. Unknown task ids
// and expired subjects are not found; the two are indistinguishable
// once retention has lapsed.
func (r *Reconciler) Status(ctx context.Context, taskID string) (StatusView, error) {
	mapping, job, err := r.resolve(ctx, taskID)
	if err != nil {
		return StatusView{}, err
	}

	view := StatusView{
		TaskID:        taskID,
		SubjectKey:    mapping.SubjectKey,
		FileName:      job.FileName,
		Status:        job.Status,
		Terminal:      job.Status.IsTerminal(),
		Superseded:    job.TaskID != taskID,
		CurrentTaskID: job.TaskID,
		UpdatedAt:     job.UpdatedAt,
	}
	if job.Status == jobs.StatusProcessing && job.TaskID == taskID {
		progress, err := r.catalog.GetProgress(ctx, mapping.SubjectKey)
		if err != nil {
			r.logger.Warn("load progress snapshot",
				logging.String(logging.FieldTaskID, taskID), logging.Error(err))
		} else {
			view.Progress = progress
		}
	}
	return view, nil
}

// ResultView carries a run's report once it is ready. Ready is false
// while the run is still in flight; Report is always set when Ready.
type ResultView struct {
	TaskID     string
	SubjectKey string
	Status     jobs.Status
	Ready      bool
	Report     *jobs.AnalysisReport
}

// Result returns the report for a task id. A run that has not reached a
// terminal state yields Ready == false with no error. A superseded
// run's report stays retrievable under its own task id until it
// expires.
func (r *Reconciler) Result(ctx context.Context, taskID string) (ResultView, error) {
	mapping, job, err := r.resolve(ctx, taskID)
	if err != nil {
		return ResultView{}, err
	}

	view := ResultView{TaskID: taskID, SubjectKey: mapping.SubjectKey, Status: job.Status}

	// While this task still owns the subject and the status has not
	// flipped terminal the run is in flight, even if the finalizer has
	// already written the report ahead of the terminal swap. The report
	// only becomes visible once the persisted status agrees.
	if job.TaskID == taskID && !job.Status.IsTerminal() {
		return view, nil
	}

	report, err := r.catalog.GetReport(ctx, taskID)
	if err != nil {
		return ResultView{}, services.Wrap(services.ErrUnavailable, "reconciler", "result",
			"load report", err)
	}
	if report != nil {
		view.Ready = true
		view.Status = report.Outcome
		view.Report = report
		return view, nil
	}

	// A terminal or superseded task without a report means the report
	// expired ahead of the record.
	return ResultView{}, services.Wrap(services.ErrNotFound, "reconciler", "result",
		fmt.Sprintf("report for task %s not found or expired", taskID), nil)
}

// Summary is one row of the subject listing.
type Summary struct {
	SubjectKey string
	FileName   string
	Language   string
	Status     jobs.Status
	TaskID     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ListFilter narrows the subject listing. Zero-value fields match
// everything.
type ListFilter struct {
	Status   string
	Language string
}

// List returns live subjects ordered by most recent update, narrowed by
// the filter. Unknown filter values are validation errors rather than
// silently empty listings.
func (r *Reconciler) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	var wantStatus jobs.Status
	if filter.Status != "" {
		status, ok := jobs.ParseStatus(filter.Status)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "reconciler", "list",
				fmt.Sprintf("unknown status filter %q", filter.Status), nil)
		}
		wantStatus = status
	}
	wantLanguage := language.ToISO2(filter.Language)
	if filter.Language != "" && wantLanguage == "" {
		return nil, services.Wrap(services.ErrValidation, "reconciler", "list",
			fmt.Sprintf("unrecognized language filter %q", filter.Language), nil)
	}

	items, err := r.catalog.ListJobs(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "reconciler", "list",
			"scan subjects", err)
	}
	summaries := make([]Summary, 0, len(items))
	for _, job := range items {
		if wantStatus != "" && job.Status != wantStatus {
			continue
		}
		if wantLanguage != "" && job.Language != wantLanguage {
			continue
		}
		summaries = append(summaries, Summary{
			SubjectKey: job.SubjectKey,
			FileName:   job.FileName,
			Language:   job.Language,
			Status:     job.Status,
			TaskID:     job.TaskID,
			CreatedAt:  job.CreatedAt,
			UpdatedAt:  job.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].SubjectKey < summaries[j].SubjectKey
	})
	return summaries, nil
}

// resolve loads the mapping and its subject record, translating absence
// into not-found errors.
func (r *Reconciler) resolve(ctx context.Context, taskID string) (*jobs.TaskMapping, *jobs.ConversationJob, error) {
	mapping, err := r.catalog.GetMapping(ctx, taskID)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrUnavailable, "reconciler", "resolve",
			"load task mapping", err)
	}
	if mapping == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "reconciler", "resolve",
			fmt.Sprintf("task %s not found or expired", taskID), nil)
	}
	job, err := r.catalog.GetJob(ctx, mapping.SubjectKey)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrUnavailable, "reconciler", "resolve",
			"load subject record", err)
	}
	if job == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "reconciler", "resolve",
			fmt.Sprintf("subject for task %s expired", taskID), nil)
	}
	return mapping, job, nil
}
