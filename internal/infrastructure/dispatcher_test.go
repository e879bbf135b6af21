package infrastructure

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_RunsJobs(t *testing.T) {
	d := NewDispatcher(8, time.Second)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		d.Enqueue(func(context.Context) { ran.Add(1) })
	}

	d.Close()
	assert.Equal(t, int32(5), ran.Load())
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	d := NewDispatcher(8, time.Second)

	done := make(chan struct{})
	d.Enqueue(func(context.Context) {
		time.Sleep(20 * time.Millisecond)
		close(done)
	})

	d.Close()

	select {
	case <-done:
	default:
		t.Fatal("Close returned before the queued job finished")
	}
}

func TestDispatcher_EnqueueAfterCloseIsDropped(t *testing.T) {
	d := NewDispatcher(8, time.Second)
	d.Close()

	var ran atomic.Bool
	// Must not panic on the closed queue; the job is silently dropped.
	d.Enqueue(func(context.Context) { ran.Store(true) })

	d.Close()
	assert.False(t, ran.Load())
}

func TestDispatcher_JobGetsDeadline(t *testing.T) {
	d := NewDispatcher(1, 50*time.Millisecond)

	var hadDeadline atomic.Bool
	d.Enqueue(func(ctx context.Context) {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
	})

	d.Close()
	assert.True(t, hadDeadline.Load())
}
