package worker

import (
	"context"
	"fmt"
	"time"
)

// job is a unit of background work run under its own timeout.
type job struct {
	name string
	fn   func(ctx context.Context) error
}

// submit queues the job. It never blocks; when the queue is full the job
// is dropped and false is returned.
func (w *Worker) submit(name string, fn func(ctx context.Context) error) bool {
	if w.isShutdown() {
		w.evHandler("worker: submit: %s: shutting down, job dropped", name)
		return false
	}

	select {
	case w.jobs <- job{name: name, fn: fn}:
		w.evHandler("worker: submit: %s: job signaled", name)
		return true
	default:
		w.evHandler("worker: submit: %s: queue full, job dropped", name)
		return false
	}
}

// jobOperations handles running queued jobs.
func (w *Worker) jobOperations() {
	w.evHandler("worker: jobOperations: G started")
	defer w.evHandler("worker: jobOperations: G completed")

	for {
		select {
		case j := <-w.jobs:
			if !w.isShutdown() {
				w.runJob(j)
			}
		case <-w.shut:
			w.evHandler("worker: jobOperations: received shut signal")
			return
		}
	}
}

// runJob executes the job and logs its outcome. A panic in the job is
// recovered so the pool keeps running.
func (w *Worker) runJob(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	t := time.Now()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("PANIC [%v]", rec)
			}
		}()
		return j.fn(ctx)
	}()

	if err != nil {
		w.evHandler("worker: runJob: %s: ERROR: %s: duration[%v]", j.name, err, time.Since(t))
		return
	}

	w.evHandler("worker: runJob: %s: completed: duration[%v]", j.name, time.Since(t))
}
