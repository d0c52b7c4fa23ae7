// Package dispatch runs closures on a single owner goroutine.
package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("dispatch: loop already running")

// Loop executes posted functions one at a time in FIFO order on the
// goroutine that calls Run. The queue is unbounded.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	started bool
	wake    chan struct{}
	stopped chan struct{}
}

// New creates a loop. Call Run to start executing posted functions.
func New() *Loop {
	return &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Post queues fn without blocking. It returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes posted functions until Close is called or ctx is done.
// Functions queued before Close are still executed.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.started = true
	l.mu.Unlock()
	defer close(l.stopped)

	for {
		batch, closed := l.take()
		for _, fn := range batch {
			fn()
		}
		if closed {
			return nil
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			l.Close()
			for _, fn := range l.drain() {
				fn()
			}
			return ctx.Err()
		}
	}
}

// take removes all queued functions. closed reports whether the loop is
// closed and the queue is now empty.
func (l *Loop) take() ([]func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch, l.closed && len(batch) == 0
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

// Close stops accepting new functions and lets Run return once the queue is empty.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stopped returns a channel closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

// Call posts fn and waits for it to run. It returns false if the loop is
// closed or ctx ends first. It must not be called from the loop itself.
func (l *Loop) Call(ctx context.Context, fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	case <-l.stopped:
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}
