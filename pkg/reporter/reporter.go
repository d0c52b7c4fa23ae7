// Package reporter hands job results to the owner loop.
package reporter

import (
	"context"
	"sync"

	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/ports"
	"github.com/user/framemux/pkg/session"
)

// Poster runs functions on the owner execution context.
type Poster interface {
	Post(fn func()) bool
}

// Notify is called on the owner loop after the session was updated.
type Notify func(attempt session.Attempt, result muxer.Result)

// Reporter delivers each attempt's result once: it updates the session and
// then calls the notify function, both inside a single posted closure.
type Reporter struct {
	owner   Poster
	session *session.Session
	logger  ports.Logger

	mu        sync.Mutex
	delivered map[string]bool
}

// New creates a reporter posting to owner.
func New(owner Poster, s *session.Session, logger ports.Logger) *Reporter {
	return &Reporter{
		owner:     owner,
		session:   s,
		logger:    logger.WithComponent("reporter"),
		delivered: make(map[string]bool),
	}
}

// Report posts result for attemptID. It returns false for duplicates and
// when the owner loop no longer accepts work.
func (r *Reporter) Report(attemptID string, result muxer.Result, notify Notify) bool {
	r.mu.Lock()
	if r.delivered[attemptID] {
		r.mu.Unlock()
		r.logger.Debug("Ignoring duplicate result for %s", attemptID)
		return false
	}
	r.delivered[attemptID] = true
	r.mu.Unlock()

	return r.owner.Post(func() {
		if err := r.session.Complete(attemptID, result); err != nil {
			r.logger.Warn("Discarding result for %s: %s", attemptID, err.Error())
			return
		}
		attempt, _ := r.session.Current()
		if notify != nil {
			notify(attempt, result)
		}
	})
}

// Listener adapts the callback job form.
func (r *Reporter) Listener(attemptID string, notify Notify) muxer.Listener {
	return func(result muxer.Result) {
		r.Report(attemptID, result, notify)
	}
}

// Await adapts the awaitable job form. It waits on its own goroutine so the
// caller is never blocked. If ctx ends first the job is cancelled and its
// cancellation result is reported.
func (r *Reporter) Await(ctx context.Context, job *muxer.Job, attemptID string, notify Notify) {
	go func() {
		result, err := job.Await(ctx)
		if err != nil {
			job.Cancel()
			result, _ = job.Await(context.Background())
		}
		r.Report(attemptID, result, notify)
	}()
}
