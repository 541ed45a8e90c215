package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"convolens/internal/queue"
	"convolens/internal/services"
)

func TestEnqueueDequeue(t *testing.T) {
	q := queue.New(4, 3, 0, nil)
	ctx := context.Background()

	if err := q.Enqueue(ctx, queue.Delivery{TaskID: "t1", SubjectKey: "s1"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	delivery, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if delivery.TaskID != "t1" || delivery.Attempt != 1 {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	q := queue.New(1, 3, 0, nil)
	ctx := context.Background()

	if err := q.Enqueue(ctx, queue.Delivery{TaskID: "t1"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	err := q.Enqueue(ctx, queue.Delivery{TaskID: "t2"})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestDequeueHonorsContext(t *testing.T) {
	q := queue.New(1, 3, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestRequeueIncrementsAttempt(t *testing.T) {
	q := queue.New(2, 3, 0, nil)
	ctx := context.Background()

	if !q.Requeue(ctx, queue.Delivery{TaskID: "t1", Attempt: 1}) {
		t.Fatal("expected requeue within budget to succeed")
	}
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	delivery, err := q.Dequeue(waitCtx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if delivery.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", delivery.Attempt)
	}
}

func TestRequeueExhaustedBudget(t *testing.T) {
	q := queue.New(2, 2, 0, nil)
	if q.Requeue(context.Background(), queue.Delivery{TaskID: "t1", Attempt: 2}) {
		t.Fatal("expected requeue past budget to be refused")
	}
}
