package jobs

const (
	jobKeyPrefix      = "job:"
	taskKeyPrefix     = "task:"
	reportKeyPrefix   = "report:"
	progressKeyPrefix = "progress:"
)

// JobKey builds the store key for a conversation job record.
func JobKey(subjectKey string) string {
	return jobKeyPrefix + subjectKey
}

// TaskKey builds the store key for a task mapping record.
func TaskKey(taskID string) string {
	return taskKeyPrefix + taskID
}

// ReportKey builds the store key for an analysis report record.
func ReportKey(taskID string) string {
	return reportKeyPrefix + taskID
}

// ProgressKey builds the store key for a progress snapshot record.
func ProgressKey(subjectKey string) string {
	return progressKeyPrefix + subjectKey
}
