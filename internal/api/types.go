package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// UploadResponse acknowledges a stored transcript.
type UploadResponse struct {
	SubjectKey string `json:"subjectKey"`
	FileName   string `json:"fileName"`
	Format     string `json:"format"`
	Language   string `json:"language"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// SubmitResponse acknowledges an accepted analysis submission.
type SubmitResponse struct {
	TaskID     string `json:"taskId"`
	SubjectKey string `json:"subjectKey"`
	Status     string `json:"status"`
	StatusURL  string `json:"statusUrl"`
	ResultURL  string `json:"resultUrl"`
}

// ProgressInfo reports per-stage liveness for an in-flight run.
type ProgressInfo struct {
	TaskID    string            `json:"taskId"`
	Stages    map[string]string `json:"stages"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

// StatusResponse is the reconciled lifecycle answer for one task id.
// AuthoritativeStatus is only present once the status is terminal and
// immutable.
type StatusResponse struct {
	TaskID              string        `json:"taskId"`
	SubjectKey          string        `json:"subjectKey"`
	FileName            string        `json:"fileName"`
	Status              string        `json:"status"`
	AuthoritativeStatus string        `json:"authoritativeStatus,omitempty"`
	Terminal            bool          `json:"terminal"`
	Superseded          bool          `json:"superseded"`
	CurrentTaskID       string        `json:"currentTaskId,omitempty"`
	Progress            *ProgressInfo `json:"progress,omitempty"`
	UpdatedAt           string        `json:"updatedAt,omitempty"`
}

// ReportPayload carries the aggregated stage output for one run.
type ReportPayload struct {
	Outcome    string                     `json:"outcome"`
	Results    map[string]json.RawMessage `json:"results"`
	Failures   map[string]string          `json:"errors,omitempty"`
	StartedAt  string                     `json:"startedAt,omitempty"`
	FinishedAt string                     `json:"finishedAt,omitempty"`
}

// ResultResponse wraps a completed run's report.
type ResultResponse struct {
	TaskID     string        `json:"taskId"`
	SubjectKey string        `json:"subjectKey"`
	Status     string        `json:"status"`
	Report     ReportPayload `json:"report"`
}

// PendingResponse is returned while a run has not settled yet.
type PendingResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ConversationSummary is one row of the subject listing.
type ConversationSummary struct {
	SubjectKey string `json:"subjectKey"`
	FileName   string `json:"fileName"`
	Language   string `json:"language"`
	Status     string `json:"status"`
	TaskID     string `json:"taskId,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// ConversationListResponse wraps the subject listing.
type ConversationListResponse struct {
	Items []ConversationSummary `json:"items"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	StorePath     string         `json:"storePath"`
	LockFilePath  string         `json:"lockFilePath"`
	QueueDepth    int            `json:"queueDepth"`
	Workers       int            `json:"workers"`
	Stages        []string       `json:"stages"`
	Conversations map[string]int `json:"conversations"`
}
