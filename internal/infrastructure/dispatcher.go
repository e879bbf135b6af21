package infrastructure

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher runs jobs outside the request/response cycle. Jobs are
// fire-and-forget: a failure is logged and the HTTP response that enqueued
// the job is unaffected. Close drains the queue before returning.
type Dispatcher struct {
	jobs       chan func(context.Context)
	wg         sync.WaitGroup
	jobTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(queueSize int, jobTimeout time.Duration) *Dispatcher {
	d := &Dispatcher{
		jobs:       make(chan func(context.Context), queueSize),
		jobTimeout: jobTimeout,
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue schedules a job. When the queue is full, or the dispatcher is
// already closed, the job is dropped and logged rather than blocking or
// panicking the caller; delivery is best-effort.
func (d *Dispatcher) Enqueue(job func(context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		log.Printf("dispatcher: closed, dropping job")
		return
	}

	select {
	case d.jobs <- job:
	default:
		log.Printf("dispatcher: queue full, dropping job")
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
		job(ctx)
		cancel()
	}
}

// Close stops accepting jobs and waits for queued ones to finish. It is
// idempotent, and Enqueue calls arriving afterwards are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
