package muxer

import (
	"context"
	"sync"
)

// Job is a running mux started with MuxAsync or MuxWithListener.
type Job struct {
	cancel context.CancelFunc

	once   sync.Once
	done   chan struct{}
	result Result
}

func newJob(cancel context.CancelFunc) *Job {
	return &Job{
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// deliver stores r as the job's result. Only the first call has an effect.
func (j *Job) deliver(r Result) bool {
	delivered := false
	j.once.Do(func() {
		j.result = r
		close(j.done)
		delivered = true
	})
	return delivered
}

// Done returns a channel closed once the result is available.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Await blocks the calling goroutine until the job finishes or ctx is done.
// Cancelling ctx does not cancel the job.
func (j *Job) Await(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		return j.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the result if the job has finished.
func (j *Job) Result() (Result, bool) {
	select {
	case <-j.done:
		return j.result, true
	default:
		return nil, false
	}
}

// Cancel asks the job to stop. A job cancelled before it finishes encoding
// yields a Failure in PhaseCancelled.
func (j *Job) Cancel() {
	j.cancel()
}
