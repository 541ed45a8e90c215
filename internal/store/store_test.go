package store_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"convolens/internal/store"
	"convolens/internal/testsupport"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "job:abc", []byte(`{"status":"uploaded"}`), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	value, err := s.Get(ctx, "job:abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(value, []byte(`{"status":"uploaded"}`)) {
		t.Fatalf("unexpected value: %s", value)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "job:missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutReplacesValueAndDeadline(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "job:abc", []byte("one"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "job:abc", []byte("two"), time.Minute); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	value, err := s.Get(ctx, "job:abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "two" {
		t.Fatalf("expected replacement, got %s", value)
	}
}

func TestExpiredKeyReadsAsAbsent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	s.SetNowFunc(func() time.Time { return current })

	if err := s.Put(ctx, "job:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	current = base.Add(time.Minute + time.Second)
	if _, err := s.Get(ctx, "job:abc"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired key to read as absent, got %v", err)
	}
}

func TestCompareAndSet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "job:abc", []byte("uploaded"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := s.CompareAndSet(ctx, "job:abc", []byte("uploaded"), []byte("processing"))
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if !ok {
		t.Fatal("expected matching swap to succeed")
	}

	// Second swap against the stale expected value must lose.
	ok, err = s.CompareAndSet(ctx, "job:abc", []byte("uploaded"), []byte("processing"))
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if ok {
		t.Fatal("expected stale swap to fail")
	}

	value, err := s.Get(ctx, "job:abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "processing" {
		t.Fatalf("unexpected value after swaps: %s", value)
	}
}

func TestCompareAndSetOnExpiredKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	s.SetNowFunc(func() time.Time { return current })

	if err := s.Put(ctx, "job:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	current = base.Add(2 * time.Minute)

	ok, err := s.CompareAndSet(ctx, "job:abc", []byte("v"), []byte("w"))
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if ok {
		t.Fatal("expected swap on expired key to fail")
	}
}

func TestScanFiltersByPrefixAndPredicate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("job:%d", i)
		if err := s.Put(ctx, key, []byte(fmt.Sprintf("value-%d", i)), time.Minute); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := s.Put(ctx, "task:0", []byte("other-family"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	values, err := s.Scan(ctx, "job:", nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 job values, got %d", len(values))
	}

	filtered, err := s.Scan(ctx, "job:", func(value []byte) bool {
		return string(value) == "value-1"
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(filtered) != 1 || string(filtered[0]) != "value-1" {
		t.Fatalf("unexpected filtered values: %v", filtered)
	}
}

func TestScanSkipsExpired(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	s.SetNowFunc(func() time.Time { return current })

	if err := s.Put(ctx, "job:short", []byte("a"), time.Second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "job:long", []byte("b"), time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	current = base.Add(time.Minute)
	values, err := s.Scan(ctx, "job:", nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(values) != 1 || string(values[0]) != "b" {
		t.Fatalf("expected only live value, got %v", values)
	}
}

func TestTouchRefreshesDeadline(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	s.SetNowFunc(func() time.Time { return current })

	if err := s.Put(ctx, "job:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	current = base.Add(30 * time.Second)
	ok, err := s.Touch(ctx, "job:abc", time.Minute)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if !ok {
		t.Fatal("expected live key touch to succeed")
	}

	// Past the original deadline but inside the refreshed one.
	current = base.Add(80 * time.Second)
	if _, err := s.Get(ctx, "job:abc"); err != nil {
		t.Fatalf("expected key still live after touch: %v", err)
	}

	current = base.Add(3 * time.Minute)
	ok, err = s.Touch(ctx, "job:abc", time.Minute)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if ok {
		t.Fatal("expected touch of expired key to fail")
	}
}

func TestSweepExpired(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	s.SetNowFunc(func() time.Time { return current })

	if err := s.Put(ctx, "job:a", []byte("a"), time.Second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "job:b", []byte("b"), time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	current = base.Add(time.Minute)
	removed, err := s.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row swept, got %d", removed)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "job:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ctx, "job:abc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "job:abc"); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "job:abc"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
