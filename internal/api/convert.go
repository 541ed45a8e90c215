package api

import (
	"time"

	"convolens/internal/jobs"
	"convolens/internal/reconciler"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromJob converts a freshly stored conversation record into an upload
// acknowledgement.
func FromJob(job *jobs.ConversationJob) UploadResponse {
	if job == nil {
		return UploadResponse{}
	}
	return UploadResponse{
		SubjectKey: job.SubjectKey,
		FileName:   job.FileName,
		Format:     job.Format,
		Language:   job.Language,
		Status:     string(job.Status),
		CreatedAt:  formatTime(job.CreatedAt),
	}
}

// FromProgress converts a progress snapshot into its API representation.
func FromProgress(snapshot *jobs.ProgressSnapshot) *ProgressInfo {
	if snapshot == nil {
		return nil
	}
	stages := make(map[string]string, len(snapshot.Stages))
	for name, state := range snapshot.Stages {
		stages[name] = state
	}
	return &ProgressInfo{
		TaskID:    snapshot.TaskID,
		Stages:    stages,
		UpdatedAt: formatTime(snapshot.UpdatedAt),
	}
}

// FromStatusView converts a reconciled status view into its API
// representation. AuthoritativeStatus is only surfaced once the status
// is terminal; CurrentTaskID only when the queried task has been
// superseded.
func FromStatusView(view reconciler.StatusView) StatusResponse {
	resp := StatusResponse{
		TaskID:     view.TaskID,
		SubjectKey: view.SubjectKey,
		FileName:   view.FileName,
		Status:     string(view.Status),
		Terminal:   view.Terminal,
		Superseded: view.Superseded,
		Progress:   FromProgress(view.Progress),
		UpdatedAt:  formatTime(view.UpdatedAt),
	}
	if view.Terminal {
		resp.AuthoritativeStatus = string(view.Status)
	}
	if view.Superseded {
		resp.CurrentTaskID = view.CurrentTaskID
	}
	return resp
}

// FromResultView converts a ready result view into its API
// representation. Callers must check Ready before converting.
func FromResultView(view reconciler.ResultView) ResultResponse {
	resp := ResultResponse{
		TaskID:     view.TaskID,
		SubjectKey: view.SubjectKey,
		Status:     string(view.Status),
	}
	if view.Report != nil {
		resp.Report = ReportPayload{
			Outcome:    string(view.Report.Outcome),
			Results:    view.Report.Results,
			Failures:   view.Report.Failures,
			StartedAt:  formatTime(view.Report.StartedAt),
			FinishedAt: formatTime(view.Report.FinishedAt),
		}
	}
	return resp
}

// FromSummary converts a listing row into its API representation.
func FromSummary(summary reconciler.Summary) ConversationSummary {
	return ConversationSummary{
		SubjectKey: summary.SubjectKey,
		FileName:   summary.FileName,
		Language:   summary.Language,
		Status:     string(summary.Status),
		TaskID:     summary.TaskID,
		CreatedAt:  formatTime(summary.CreatedAt),
		UpdatedAt:  formatTime(summary.UpdatedAt),
	}
}

// FromSummaries converts a slice of listing rows into API DTOs.
func FromSummaries(summaries []reconciler.Summary) []ConversationSummary {
	if len(summaries) == 0 {
		return nil
	}
	out := make([]ConversationSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, FromSummary(summary))
	}
	return out
}
