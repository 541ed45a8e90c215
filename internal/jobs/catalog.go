package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"convolens/internal/store"
)

// Catalog provides typed access to job records over the state store.
// All writes carry the catalog's retention window as their TTL.
type Catalog struct {
	store *store.Store
	ttl   time.Duration
}

// NewCatalog wraps the given store with the retention window applied to
// every record write.
func NewCatalog(s *store.Store, ttl time.Duration) *Catalog {
	return &Catalog{store: s, ttl: ttl}
}

// TTL returns the retention window applied to record writes.
func (c *Catalog) TTL() time.Duration {
	return c.ttl
}

// GetJob loads a conversation job. Missing or expired records return
// (nil, nil).
func (c *Catalog) GetJob(ctx context.Context, subjectKey string) (*ConversationJob, error) {
	value, err := c.store.Get(ctx, JobKey(subjectKey))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", subjectKey, err)
	}
	job := &ConversationJob{}
	if err := json.Unmarshal(value, job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", subjectKey, err)
	}
	job.raw = value
	return job, nil
}

// PutJob writes a conversation job unconditionally and refreshes its
// retention deadline.
func (c *Catalog) PutJob(ctx context.Context, job *ConversationJob) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.SubjectKey, err)
	}
	if err := c.store.Put(ctx, JobKey(job.SubjectKey), value, c.ttl); err != nil {
		return fmt.Errorf("store job %s: %w", job.SubjectKey, err)
	}
	job.raw = value
	return nil
}

// SwapJob persists the job's current fields only if the stored record
// still matches the bytes the job was loaded from. It returns false when
// another writer got there first; the in-memory record is left unchanged
// in that case so the caller can reload and decide.
func (c *Catalog) SwapJob(ctx context.Context, job *ConversationJob) (bool, error) {
	if job.raw == nil {
		return false, fmt.Errorf("swap job %s: record was never loaded", job.SubjectKey)
	}
	value, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encode job %s: %w", job.SubjectKey, err)
	}
	swapped, err := c.store.CompareAndSet(ctx, JobKey(job.SubjectKey), job.raw, value)
	if err != nil {
		return false, fmt.Errorf("swap job %s: %w", job.SubjectKey, err)
	}
	if swapped {
		job.raw = value
	}
	return swapped, nil
}

// TouchJob extends a live job's retention deadline without rewriting it.
func (c *Catalog) TouchJob(ctx context.Context, subjectKey string) (bool, error) {
	return c.store.Touch(ctx, JobKey(subjectKey), c.ttl)
}

// DeleteJob removes a conversation job record.
func (c *Catalog) DeleteJob(ctx context.Context, subjectKey string) error {
	return c.store.Delete(ctx, JobKey(subjectKey))
}

// ListJobs returns every live conversation job. Records that no longer
// decode are skipped rather than failing the whole listing.
func (c *Catalog) ListJobs(ctx context.Context) ([]*ConversationJob, error) {
	values, err := c.store.Scan(ctx, jobKeyPrefix, nil)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	items := make([]*ConversationJob, 0, len(values))
	for _, value := range values {
		job := &ConversationJob{}
		if err := json.Unmarshal(value, job); err != nil {
			continue
		}
		job.raw = value
		items = append(items, job)
	}
	return items, nil
}

// GetMapping resolves a task id. Missing or expired mappings return
// (nil, nil).
func (c *Catalog) GetMapping(ctx context.Context, taskID string) (*TaskMapping, error) {
	value, err := c.store.Get(ctx, TaskKey(taskID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping %s: %w", taskID, err)
	}
	mapping := &TaskMapping{}
	if err := json.Unmarshal(value, mapping); err != nil {
		return nil, fmt.Errorf("decode mapping %s: %w", taskID, err)
	}
	return mapping, nil
}

// PutMapping records a task-to-subject mapping.
func (c *Catalog) PutMapping(ctx context.Context, mapping *TaskMapping) error {
	value, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("encode mapping %s: %w", mapping.TaskID, err)
	}
	if err := c.store.Put(ctx, TaskKey(mapping.TaskID), value, c.ttl); err != nil {
		return fmt.Errorf("store mapping %s: %w", mapping.TaskID, err)
	}
	return nil
}

// DeleteMapping removes a task mapping, typically to roll back a
// submission that lost its admission race.
func (c *Catalog) DeleteMapping(ctx context.Context, taskID string) error {
	return c.store.Delete(ctx, TaskKey(taskID))
}

// GetReport loads the analysis report for a task. Missing or expired
// reports return (nil, nil).
func (c *Catalog) GetReport(ctx context.Context, taskID string) (*AnalysisReport, error) {
	value, err := c.store.Get(ctx, ReportKey(taskID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", taskID, err)
	}
	report := &AnalysisReport{}
	if err := json.Unmarshal(value, report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", taskID, err)
	}
	return report, nil
}

// PutReport stores a run's aggregated report. Callers write the report
// before flipping the job terminal so a terminal status is never
// observable without a retrievable report.
func (c *Catalog) PutReport(ctx context.Context, report *AnalysisReport) error {
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.TaskID, err)
	}
	if err := c.store.Put(ctx, ReportKey(report.TaskID), value, c.ttl); err != nil {
		return fmt.Errorf("store report %s: %w", report.TaskID, err)
	}
	return nil
}

// GetProgress loads the progress snapshot for a subject. Missing or
// expired snapshots return (nil, nil).
func (c *Catalog) GetProgress(ctx context.Context, subjectKey string) (*ProgressSnapshot, error) {
	value, err := c.store.Get(ctx, ProgressKey(subjectKey))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", subjectKey, err)
	}
	snapshot := &ProgressSnapshot{}
	if err := json.Unmarshal(value, snapshot); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", subjectKey, err)
	}
	return snapshot, nil
}

// PutProgress stores a progress snapshot for an in-flight run.
func (c *Catalog) PutProgress(ctx context.Context, snapshot *ProgressSnapshot) error {
	value, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", snapshot.SubjectKey, err)
	}
	if err := c.store.Put(ctx, ProgressKey(snapshot.SubjectKey), value, c.ttl); err != nil {
		return fmt.Errorf("store progress %s: %w", snapshot.SubjectKey, err)
	}
	return nil
}

// DeleteProgress clears the snapshot once a run reaches a terminal state.
func (c *Catalog) DeleteProgress(ctx context.Context, subjectKey string) error {
	return c.store.Delete(ctx, ProgressKey(subjectKey))
}
