package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"convolens/internal/api"
	"convolens/internal/jobs"
	"convolens/internal/reconciler"
)

func TestFromStatusViewHidesCurrentTaskUnlessSuperseded(t *testing.T) {
	view := reconciler.StatusView{
		TaskID:        "task-1",
		SubjectKey:    "subject.json",
		FileName:      "chat.json",
		Status:        jobs.StatusProcessing,
		CurrentTaskID: "task-1",
		UpdatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	resp := api.FromStatusView(view)
	if resp.CurrentTaskID != "" {
		t.Fatalf("expected current task hidden for live run, got %q", resp.CurrentTaskID)
	}
	if resp.UpdatedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp %q", resp.UpdatedAt)
	}

	view.Superseded = true
	view.CurrentTaskID = "task-2"
	resp = api.FromStatusView(view)
	if resp.CurrentTaskID != "task-2" {
		t.Fatalf("expected current task surfaced for superseded run, got %q", resp.CurrentTaskID)
	}
}

func TestFromStatusViewAuthoritativeOnlyWhenTerminal(t *testing.T) {
	view := reconciler.StatusView{
		TaskID:     "task-1",
		SubjectKey: "subject.json",
		Status:     jobs.StatusProcessing,
	}
	resp := api.FromStatusView(view)
	if resp.AuthoritativeStatus != "" {
		t.Fatalf("expected no authoritative status while processing, got %q", resp.AuthoritativeStatus)
	}

	view.Status = jobs.StatusCompletedWithErrors
	view.Terminal = true
	resp = api.FromStatusView(view)
	if resp.AuthoritativeStatus != string(jobs.StatusCompletedWithErrors) {
		t.Fatalf("expected authoritative status once terminal, got %q", resp.AuthoritativeStatus)
	}
}

func TestFromStatusViewCarriesProgress(t *testing.T) {
	view := reconciler.StatusView{
		TaskID:     "task-1",
		SubjectKey: "subject.json",
		Status:     jobs.StatusProcessing,
		Progress: &jobs.ProgressSnapshot{
			TaskID: "task-1",
			Stages: map[string]string{"emotion": jobs.StageStateRunning},
		},
	}
	resp := api.FromStatusView(view)
	if resp.Progress == nil {
		t.Fatal("expected progress in response")
	}
	if resp.Progress.Stages["emotion"] != jobs.StageStateRunning {
		t.Fatalf("unexpected stage state %q", resp.Progress.Stages["emotion"])
	}
}

func TestFromResultViewCopiesReport(t *testing.T) {
	view := reconciler.ResultView{
		TaskID:     "task-1",
		SubjectKey: "subject.json",
		Status:     jobs.StatusCompletedWithErrors,
		Ready:      true,
		Report: &jobs.AnalysisReport{
			TaskID:   "task-1",
			Outcome:  jobs.StatusCompletedWithErrors,
			Results:  map[string]json.RawMessage{"speaker_stats": json.RawMessage(`{"total_messages":2}`)},
			Failures: map[string]string{"emotion": "model unavailable"},
		},
	}
	resp := api.FromResultView(view)
	if resp.Report.Outcome != string(jobs.StatusCompletedWithErrors) {
		t.Fatalf("unexpected outcome %q", resp.Report.Outcome)
	}
	if len(resp.Report.Results) != 1 || resp.Report.Failures["emotion"] == "" {
		t.Fatalf("report payload not carried over: %+v", resp.Report)
	}
}

func TestFromSummariesEmpty(t *testing.T) {
	if out := api.FromSummaries(nil); out != nil {
		t.Fatalf("expected nil for empty input, got %v", out)
	}
}
