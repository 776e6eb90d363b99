package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRunsImmediatelyAndRepeats(t *testing.T) {
	s := NewScheduler()
	var runs int32
	s.Every("count", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	s.Every("failing", 10*time.Millisecond, func(context.Context) error {
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(55 * time.Millisecond)
	cancel()
	s.Wait()

	if n := atomic.LoadInt32(&runs); n < 3 {
		t.Fatalf("expected at least 3 runs, got %d", n)
	}
}

func TestStopsOnCancel(t *testing.T) {
	s := NewScheduler()
	s.Daily("nightly", 2, 0, func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNextDaily(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 1, 1, 0, 0, 0, loc), time.Date(2025, 3, 1, 2, 0, 0, 0, loc)},
		{time.Date(2025, 3, 1, 2, 0, 0, 0, loc), time.Date(2025, 3, 2, 2, 0, 0, 0, loc)},
		{time.Date(2025, 3, 31, 23, 0, 0, 0, loc), time.Date(2025, 4, 1, 2, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		if got := nextDaily(tc.now, 2, 0); !got.Equal(tc.want) {
			t.Errorf("nextDaily(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}
