package reconciler_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"convolens/internal/jobs"
	"convolens/internal/reconciler"
	"convolens/internal/services"
	"convolens/internal/testsupport"
)

type env struct {
	catalog    *jobs.Catalog
	reconciler *reconciler.Reconciler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	catalog := jobs.NewCatalog(s, cfg.RetentionWindow())
	return &env{catalog: catalog, reconciler: reconciler.New(catalog, nil)}
}

func (e *env) seed(t *testing.T, subjectKey, taskID string, status jobs.Status) *jobs.ConversationJob {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	job := &jobs.ConversationJob{
		SubjectKey: subjectKey,
		FileName:   "call.json",
		Language:   "en",
		Status:     status,
		TaskID:     taskID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.catalog.PutJob(ctx, job); err != nil {
		t.Fatalf("PutJob: %v", err)
	}
	if taskID != "" {
		mapping := &jobs.TaskMapping{TaskID: taskID, SubjectKey: subjectKey, SubmittedAt: now}
		if err := e.catalog.PutMapping(ctx, mapping); err != nil {
			t.Fatalf("PutMapping: %v", err)
		}
	}
	return job
}

func TestStatusUnknownTask(t *testing.T) {
	e := newEnv(t)
	_, err := e.reconciler.Status(context.Background(), "no-such-task")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusExpiredSubject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// Mapping outlives the subject record.
	mapping := &jobs.TaskMapping{TaskID: "task-1", SubjectKey: "gone", SubmittedAt: time.Now()}
	if err := e.catalog.PutMapping(ctx, mapping); err != nil {
		t.Fatalf("PutMapping: %v", err)
	}
	_, err := e.reconciler.Status(ctx, "task-1")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for expired subject, got %v", err)
	}
}

func TestStatusInProgressIncludesProgress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "subj-1", "task-1", jobs.StatusProcessing)
	snapshot := &jobs.ProgressSnapshot{
		SubjectKey: "subj-1",
		TaskID:     "task-1",
		Stages:     map[string]string{"emotion": jobs.StageStateRunning},
		UpdatedAt:  time.Now().UTC(),
	}
	if err := e.catalog.PutProgress(ctx, snapshot); err != nil {
		t.Fatalf("PutProgress: %v", err)
	}

	view, err := e.reconciler.Status(ctx, "task-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if view.Status != jobs.StatusProcessing || view.Terminal {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Progress == nil || view.Progress.Stages["emotion"] != jobs.StageStateRunning {
		t.Fatalf("expected progress snapshot, got %+v", view.Progress)
	}
}

func TestStatusTerminalIsAuthoritative(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "subj-1", "task-1", jobs.StatusCompletedWithErrors)

	view, err := e.reconciler.Status(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !view.Terminal || view.Status != jobs.StatusCompletedWithErrors {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Superseded {
		t.Fatal("current task should not be superseded")
	}
}

func TestStatusSuperseded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// Job points at task-2; task-1's mapping still resolves.
	e.seed(t, "subj-1", "task-2", jobs.StatusProcessing)
	mapping := &jobs.TaskMapping{TaskID: "task-1", SubjectKey: "subj-1", SubmittedAt: time.Now()}
	if err := e.catalog.PutMapping(ctx, mapping); err != nil {
		t.Fatalf("PutMapping: %v", err)
	}

	view, err := e.reconciler.Status(ctx, "task-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !view.Superseded || view.CurrentTaskID != "task-2" {
		t.Fatalf("expected superseded view, got %+v", view)
	}
	if view.Progress != nil {
		t.Fatal("superseded task should not report progress")
	}
}

func TestResultNotReady(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "subj-1", "task-1", jobs.StatusProcessing)

	view, err := e.reconciler.Result(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if view.Ready || view.Report != nil {
		t.Fatalf("expected not-ready view, got %+v", view)
	}
}

func TestResultReady(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "subj-1", "task-1", jobs.StatusCompleted)
	report := &jobs.AnalysisReport{
		TaskID:     "task-1",
		SubjectKey: "subj-1",
		Outcome:    jobs.StatusCompleted,
		Results:    map[string]json.RawMessage{"speaker_stats": json.RawMessage(`{}`)},
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	}
	if err := e.catalog.PutReport(ctx, report); err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	view, err := e.reconciler.Result(ctx, "task-1")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if !view.Ready || view.Report == nil {
		t.Fatalf("expected ready view, got %+v", view)
	}
	if view.Status != jobs.StatusCompleted {
		t.Fatalf("unexpected status: %s", view.Status)
	}
}

func TestResultSupersededStillServed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "subj-1", "task-2", jobs.StatusProcessing)
	mapping := &jobs.TaskMapping{TaskID: "task-1", SubjectKey: "subj-1", SubmittedAt: time.Now()}
	if err := e.catalog.PutMapping(ctx, mapping); err != nil {
		t.Fatalf("PutMapping: %v", err)
	}
	report := &jobs.AnalysisReport{
		TaskID:     "task-1",
		SubjectKey: "subj-1",
		Outcome:    jobs.StatusCompleted,
		Results:    map[string]json.RawMessage{"tactics": json.RawMessage(`{}`)},
	}
	if err := e.catalog.PutReport(ctx, report); err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	view, err := e.reconciler.Result(ctx, "task-1")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if !view.Ready || view.Report.TaskID != "task-1" {
		t.Fatalf("expected superseded report served, got %+v", view)
	}
}

func TestResultNotReadyWhileStatusProcessing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// The finalizer writes the report before the terminal swap; a
	// reader in that window must still see the run as in flight.
	e.seed(t, "subj-1", "task-1", jobs.StatusProcessing)
	report := &jobs.AnalysisReport{
		TaskID:     "task-1",
		SubjectKey: "subj-1",
		Outcome:    jobs.StatusCompleted,
		Results:    map[string]json.RawMessage{"emotion": json.RawMessage(`{}`)},
	}
	if err := e.catalog.PutReport(ctx, report); err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	view, err := e.reconciler.Result(ctx, "task-1")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if view.Ready || view.Report != nil {
		t.Fatalf("expected not ready before terminal swap, got %+v", view)
	}
	if view.Status != jobs.StatusProcessing {
		t.Fatalf("expected processing status, got %q", view.Status)
	}
}

func TestResultTerminalWithoutReport(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "subj-1", "task-1", jobs.StatusCompleted)

	_, err := e.reconciler.Result(context.Background(), "task-1")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing report, got %v", err)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	older := e.seed(t, "subj-old", "task-1", jobs.StatusCompleted)
	older.UpdatedAt = older.UpdatedAt.Add(-time.Hour)
	if err := e.catalog.PutJob(ctx, older); err != nil {
		t.Fatalf("PutJob: %v", err)
	}
	e.seed(t, "subj-new", "task-2", jobs.StatusProcessing)

	summaries, err := e.reconciler.List(ctx, reconciler.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].SubjectKey != "subj-new" {
		t.Fatalf("expected newest first, got %v", summaries)
	}
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "subj-done", "task-1", jobs.StatusCompleted)
	e.seed(t, "subj-live", "task-2", jobs.StatusProcessing)
	spanish := e.seed(t, "subj-es", "task-3", jobs.StatusCompleted)
	spanish.Language = "es"
	if err := e.catalog.PutJob(ctx, spanish); err != nil {
		t.Fatalf("PutJob: %v", err)
	}

	byStatus, err := e.reconciler.List(ctx, reconciler.ListFilter{Status: "processing"})
	if err != nil {
		t.Fatalf("List by status failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].SubjectKey != "subj-live" {
		t.Fatalf("unexpected status-filtered listing: %+v", byStatus)
	}

	// Language filters normalize, so a BCP 47 tag still matches.
	byLanguage, err := e.reconciler.List(ctx, reconciler.ListFilter{Language: "es-MX"})
	if err != nil {
		t.Fatalf("List by language failed: %v", err)
	}
	if len(byLanguage) != 1 || byLanguage[0].SubjectKey != "subj-es" {
		t.Fatalf("unexpected language-filtered listing: %+v", byLanguage)
	}

	both, err := e.reconciler.List(ctx, reconciler.ListFilter{Status: "completed", Language: "en"})
	if err != nil {
		t.Fatalf("List with both filters failed: %v", err)
	}
	if len(both) != 1 || both[0].SubjectKey != "subj-done" {
		t.Fatalf("unexpected combined listing: %+v", both)
	}

	if _, err := e.reconciler.List(ctx, reconciler.ListFilter{Status: "sideways"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
