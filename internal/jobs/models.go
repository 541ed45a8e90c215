package jobs

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a conversation job.
type Status string

const (
	StatusUploaded            Status = "uploaded"
	StatusProcessing          Status = "processing"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
)

var allStatuses = []Status{
	StatusUploaded,
	StatusProcessing,
	StatusCompleted,
	StatusCompletedWithErrors,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether the status ends a job's lifecycle. Terminal
// jobs accept no further stage work and only change via re-submission.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed:
		return true
	default:
		return false
	}
}

// Display returns a human-readable form of the status.
func (s Status) Display() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// ConversationJob is the per-conversation record keyed by subject key.
// TaskID always names the most recent submission; earlier task ids stay
// resolvable through their task mappings until they expire.
type ConversationJob struct {
	SubjectKey string    `json:"subject_key"`
	FileName   string    `json:"file_name"`
	StoredPath string    `json:"stored_path"`
	Format     string    `json:"format"`
	Language   string    `json:"language"`
	Status     Status    `json:"status"`
	TaskID     string    `json:"task_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// raw holds the stored bytes this record was loaded from. Swaps
	// compare against it so a stale in-memory copy cannot clobber a
	// newer write.
	raw []byte
}

// StoredBytes returns the serialized form this record was loaded from,
// or nil for records that have not been persisted yet.
func (j *ConversationJob) StoredBytes() []byte {
	return j.raw
}

// TaskMapping resolves a task id to the subject key it was issued for.
type TaskMapping struct {
	TaskID      string    `json:"task_id"`
	SubjectKey  string    `json:"subject_key"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AnalysisReport is the aggregated result of one pipeline run, keyed by
// task id. Results holds the payload of every stage that succeeded;
// Failures maps each failed stage to its error message. Outcome mirrors
// the terminal status the run produced.
type AnalysisReport struct {
	TaskID     string                     `json:"task_id"`
	SubjectKey string                     `json:"subject_key"`
	Outcome    Status                     `json:"outcome"`
	Results    map[string]json.RawMessage `json:"results"`
	Failures   map[string]string          `json:"failures,omitempty"`
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
}

// Outcome derives the terminal status for a run from its stage tallies.
func Outcome(succeeded, failed int) Status {
	switch {
	case failed == 0:
		return StatusCompleted
	case succeeded == 0:
		return StatusFailed
	default:
		return StatusCompletedWithErrors
	}
}

// Stage states recorded in progress snapshots.
const (
	StageStateRunning = "running"
	StageStateDone    = "done"
	StageStateFailed  = "failed"
)

// ProgressSnapshot tracks per-stage liveness for an in-flight run. It is
// advisory: the job record stays the authority on lifecycle status.
type ProgressSnapshot struct {
	SubjectKey string            `json:"subject_key"`
	TaskID     string            `json:"task_id"`
	Stages     map[string]string `json:"stages"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
