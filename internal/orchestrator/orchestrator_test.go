package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrchestrator(poolSize int) *Orchestrator {
	return &Orchestrator{
		logger:   zap.NewNop(),
		jobs:     make(chan job, poolSize*4),
		poolSize: poolSize,
	}
}

func TestEnqueue_RunsJobOnWorkerPool(t *testing.T) {
	o := newTestOrchestrator(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	var mu sync.Mutex
	var got int64
	done := make(chan struct{})

	err := o.Enqueue(ctx, 7, func(ctx context.Context, itemID int64) error {
		mu.Lock()
		got = itemID
		mu.Unlock()
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(7), got)
}

func TestEnqueue_BlocksWhenQueueFullUntilCanceled(t *testing.T) {
	o := newTestOrchestrator(1)
	// No workers running, so the four-job buffer fills immediately.
	require.NoError(t, o.Enqueue(context.Background(), 1, func(context.Context, int64) error { return nil }))
	require.NoError(t, o.Enqueue(context.Background(), 2, func(context.Context, int64) error { return nil }))
	require.NoError(t, o.Enqueue(context.Background(), 3, func(context.Context, int64) error { return nil }))
	require.NoError(t, o.Enqueue(context.Background(), 4, func(context.Context, int64) error { return nil }))
	// buffer is poolSize*4 = 4, now full.

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := o.Enqueue(ctx, 5, func(context.Context, int64) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_ContinuesAfterJobError(t *testing.T) {
	o := newTestOrchestrator(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	require.NoError(t, o.Enqueue(ctx, 1, func(context.Context, int64) error {
		return assertJobErr{}
	}))

	done := make(chan struct{})
	require.NoError(t, o.Enqueue(ctx, 2, func(context.Context, int64) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped processing after a job error")
	}
}

type assertJobErr struct{}

func (assertJobErr) Error() string { return "job failed" }

func TestRun_StopsWhenContextCanceled(t *testing.T) {
	o := newTestOrchestrator(1)
	ctx, cancel := context.WithCancel(context.Background())

	runDone := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(runDone)
	}()

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
