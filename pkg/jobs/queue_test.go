package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("reports", func(ctx context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a", Type: "attendance"}))
	require.NoError(t, q.Enqueue(Job{ID: "b", Type: "journals"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	require.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("reports", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "retry"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("reports", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestQueueRejectsDuplicateWhileActive(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	q := NewQueue("reports", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	<-started
	require.ErrorIs(t, q.Enqueue(Job{ID: "job-1"}), ErrDuplicate)

	close(release)
	require.Eventually(t, func() bool {
		return q.Enqueue(Job{ID: "job-1"}) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestQueueBackoffDoublesUpToCap(t *testing.T) {
	q := NewQueue("reports", func(context.Context, Job) error { return nil }, QueueConfig{
		RetryDelay:    time.Second,
		MaxRetryDelay: 5 * time.Second,
	})
	require.Equal(t, time.Second, q.backoff(1))
	require.Equal(t, 2*time.Second, q.backoff(2))
	require.Equal(t, 4*time.Second, q.backoff(3))
	require.Equal(t, 5*time.Second, q.backoff(4))
	require.Equal(t, 5*time.Second, q.backoff(10))

	defaults := NewQueue("reports", func(context.Context, Job) error { return nil }, QueueConfig{RetryDelay: 2 * time.Minute})
	require.Equal(t, 2*time.Minute, defaults.backoff(3))
}
