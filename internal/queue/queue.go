// Package queue provides the in-process delivery queue between the
// dispatcher and the analysis workers. Deliveries are at-least-once: a
// failed run can be redelivered until its delivery budget is spent.
package queue

import (
	"context"
	"log/slog"
	"time"

	"convolens/internal/logging"
	"convolens/internal/services"
)

// Delivery is one unit of pipeline work.
type Delivery struct {
	TaskID     string
	SubjectKey string
	Attempt    int
}

// Queue is a bounded FIFO of pending pipeline runs.
type Queue struct {
	ch            chan Delivery
	maxDeliveries int
	retryInterval time.Duration
	logger        *slog.Logger
}

// New builds a queue with the given capacity and delivery budget.
func New(capacity, maxDeliveries int, retryInterval time.Duration, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	if capacity <= 0 {
		capacity = 1
	}
	if maxDeliveries <= 0 {
		maxDeliveries = 1
	}
	return &Queue{
		ch:            make(chan Delivery, capacity),
		maxDeliveries: maxDeliveries,
		retryInterval: retryInterval,
		logger:        logger.With(logging.String(logging.FieldComponent, "queue")),
	}
}

// Enqueue submits a first delivery. A full queue reports unavailability
// instead of blocking the caller.
func (q *Queue) Enqueue(ctx context.Context, delivery Delivery) error {
	if delivery.Attempt == 0 {
		delivery.Attempt = 1
	}
	select {
	case q.ch <- delivery:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return services.Wrap(services.ErrUnavailable, "queue", "enqueue",
			"delivery queue is full", nil)
	}
}

// Requeue schedules a redelivery after the retry interval. It returns
// false when the delivery budget is spent.
func (q *Queue) Requeue(ctx context.Context, delivery Delivery) bool {
	if delivery.Attempt >= q.maxDeliveries {
		q.logger.Warn("delivery budget spent",
			logging.String(logging.FieldTaskID, delivery.TaskID),
			logging.Int("attempts", delivery.Attempt))
		return false
	}
	delivery.Attempt++

	go func() {
		if q.retryInterval > 0 {
			timer := time.NewTimer(q.retryInterval)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}
		select {
		case q.ch <- delivery:
		case <-ctx.Done():
		}
	}()
	return true
}

// Dequeue blocks until a delivery or context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (Delivery, error) {
	select {
	case delivery := <-q.ch:
		return delivery, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// Len reports the number of queued deliveries.
func (q *Queue) Len() int {
	return len(q.ch)
}

// MaxDeliveries returns the per-task delivery budget.
func (q *Queue) MaxDeliveries() int {
	return q.maxDeliveries
}
