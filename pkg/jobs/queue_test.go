package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsBufferedJobsOnStop(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	release := make(chan struct{})
	q := NewQueue[int]("test", func(ctx context.Context, n int) error {
		<-release
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.TryEnqueue(i))
	}
	close(release)
	q.Stop()

	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, seen)
	assert.ErrorIs(t, q.TryEnqueue(9), ErrQueueStopped)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	q := NewQueue[string]("retry", func(ctx context.Context, _ string) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue("audit"))
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	q := NewQueue[string]("give-up", func(ctx context.Context, _ string) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue("audit"))
	q.Stop()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTryEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue[int]("full", func(ctx context.Context, _ int) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.ErrorIs(t, q.TryEnqueue(0), ErrQueueStopped)
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(1))
	// wait for the worker to pick up the first job so the buffer is empty
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(2))
	assert.ErrorIs(t, q.TryEnqueue(3), ErrQueueFull)

	close(block)
	q.Stop()
}

func TestStopHonoursDrainTimeout(t *testing.T) {
	q := NewQueue[int]("slow", func(ctx context.Context, _ int) error {
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1, BufferSize: 4, DrainTimeout: 20 * time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.TryEnqueue(1))
	require.NoError(t, q.TryEnqueue(2))

	started := time.Now()
	q.Stop()
	assert.Less(t, time.Since(started), time.Second)
}
