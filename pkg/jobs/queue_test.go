package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetriesWithBackoffUntilSuccess(t *testing.T) {
	var attempts int32
	done := make(chan Job, 1)
	mux := NewMux()
	mux.Handle("send_email", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("smtp unavailable")
		}
		done <- job
		return nil
	})

	q := NewQueue("mail", mux.Dispatch, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "send_email"}))
	select {
	case job := <-done:
		assert.Equal(t, 2, job.Attempt)
		assert.NotEmpty(t, job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestPanickingHandlerIsRetried(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("panics", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("template exploded")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "any"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried after panic")
	}
}

func TestEnqueueRejectsWhenClosedOrFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("tiny", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{BufferSize: 1})

	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueClosed)

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{}))
	// the single worker may or may not have taken the first job yet
	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = q.Enqueue(Job{})
	}
	assert.ErrorIs(t, full, ErrQueueFull)

	close(release)
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueClosed)
}

func TestStopDrainsBufferedJobs(t *testing.T) {
	var handled int32
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{BufferSize: 10})
	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "x"}))
	}
	q.Stop()
	assert.EqualValues(t, 5, atomic.LoadInt32(&handled))
}

func TestMuxUnknownType(t *testing.T) {
	err := NewMux().Dispatch(context.Background(), Job{Type: "missing"})
	assert.Error(t, err)
}
