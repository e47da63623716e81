package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_Enqueue(t *testing.T) {
	w := NewWorker(2)

	done := make(chan struct{})
	w.Enqueue(func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	w.Shutdown()
}

func TestWorker_EnqueueForDocument_FIFOPerLane(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		w.EnqueueForDocument(7, func(ctx context.Context) error {
			defer wg.Done()
			// Sleeping makes out-of-order execution show up if jobs overlap.
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestWorker_EnqueueForDocument_LanesRunIndependently(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	blockerStarted := make(chan struct{})
	release := make(chan struct{})
	otherDone := make(chan struct{})

	w.EnqueueForDocument(1, func(ctx context.Context) error {
		close(blockerStarted)
		<-release
		return nil
	})
	<-blockerStarted

	w.EnqueueForDocument(2, func(ctx context.Context) error {
		close(otherDone)
		return nil
	})

	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("job for another document blocked behind a busy lane")
	}
	close(release)
}

func TestWorker_FailureCounted(t *testing.T) {
	w := NewWorker(1)

	done := make(chan struct{})
	w.EnqueueForDocument(3, func(ctx context.Context) error {
		defer close(done)
		return errors.New("boom")
	})
	<-done
	w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.FailedJobs)
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	job := Retry(3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	assert.NoError(t, job(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhaustion(t *testing.T) {
	cause := errors.New("permanent")
	calls := 0
	exhausted := false
	var exhaustedErr error

	job := Retry(3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return cause
	}, func(ctx context.Context, err error) {
		exhausted = true
		exhaustedErr = err
	})

	err := job(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
	assert.True(t, exhausted)
	assert.ErrorIs(t, exhaustedErr, cause)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	job := Retry(5, time.Hour, func(ctx context.Context) error {
		return errors.New("fail fast")
	}, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := job(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_GetStats(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, 10, stats.MaxConcurrent)
	assert.Equal(t, 0, stats.QueueLength)
}
