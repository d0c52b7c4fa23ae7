// Package session tracks the build state of the muxing screen.
// All mutating methods are meant to be called on the owner loop.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/ports"
)

// State represents the build state of a session.
type State string

const (
	// StateIdle is the state before the first build.
	StateIdle State = "idle"
	// StateBuilding means a job is running.
	StateBuilding State = "building"
	// StateBuilt means the last job produced a video.
	StateBuilt State = "built"
	// StateFailed means the last job failed.
	StateFailed State = "failed"
)

var (
	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("session: invalid state transition")
	// ErrBuildInProgress is returned by Begin while a job is running.
	ErrBuildInProgress = errors.New("session: build already in progress")
	// ErrNotBuilt is returned when play or share is requested without a built video.
	ErrNotBuilt = errors.New("session: no built video")
	// ErrStaleAttempt is returned for results of an attempt that is not current.
	ErrStaleAttempt = errors.New("session: result does not belong to the current attempt")
)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[State][]State{
	StateIdle:     {StateBuilding},
	StateBuilding: {StateBuilt, StateFailed},
	StateBuilt:    {StateBuilding},
	StateFailed:   {StateBuilding},
}

// canTransition checks if a transition from one state to another is valid.
func canTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Actions lists which user actions are currently available.
type Actions struct {
	Build bool
	Play  bool
	Share bool
}

// Attempt is one build: its config, timing and result.
type Attempt struct {
	ID         string
	Config     muxer.Config
	StartedAt  time.Time
	FinishedAt time.Time
	Result     muxer.Result
}

// Session holds the selected codec and the current attempt.
type Session struct {
	mu    sync.RWMutex
	query ports.CodecQuery
	now   func() time.Time

	codec   string
	state   State
	current *Attempt

	// restored by Rollback
	prevState   State
	prevAttempt *Attempt
}

// New creates an idle session with an initial codec. The codec is not
// checked here; use SelectCodec for checked changes.
func New(query ports.CodecQuery, codec string) *Session {
	return &Session{
		query: query,
		now:   time.Now,
		codec: codec,
		state: StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Codec returns the selected codec.
func (s *Session) Codec() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codec
}

// SelectCodec changes the codec used by the next build. Unsupported codecs
// are rejected and the previous codec stays selected.
func (s *Session) SelectCodec(codec string) error {
	if !s.query.IsSupported(codec) {
		return fmt.Errorf("%w: %s", muxer.ErrCodecUnsupported, codec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codec = codec
	return nil
}

// Actions returns the actions available in the current state.
func (s *Session) Actions() Actions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return actionsFor(s.state)
}

func actionsFor(state State) Actions {
	return Actions{
		Build: state != StateBuilding,
		Play:  state == StateBuilt,
		Share: state == StateBuilt,
	}
}

// Begin starts a new attempt with cfg and moves to Building.
func (s *Session) Begin(cfg muxer.Config) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateBuilding {
		return Attempt{}, ErrBuildInProgress
	}
	if !canTransition(s.state, StateBuilding) {
		return Attempt{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, StateBuilding)
	}

	s.prevState = s.state
	s.prevAttempt = s.current

	s.current = &Attempt{
		ID:        uuid.NewString(),
		Config:    cfg,
		StartedAt: s.now(),
	}
	s.state = StateBuilding
	return *s.current, nil
}

// Rollback undoes Begin for an attempt whose job was rejected before it started.
func (s *Session) Rollback(attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBuilding || s.current == nil || s.current.ID != attemptID {
		return ErrStaleAttempt
	}
	s.state = s.prevState
	s.current = s.prevAttempt
	s.prevAttempt = nil
	return nil
}

// Complete records the result of the current attempt and moves to Built or
// Failed. Results for any other attempt, or a second result for the same
// attempt, are rejected.
func (s *Session) Complete(attemptID string, result muxer.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != attemptID {
		return ErrStaleAttempt
	}

	next := StateFailed
	if result != nil && result.Succeeded() {
		next = StateBuilt
	}
	if !canTransition(s.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}

	s.current.Result = result
	s.current.FinishedAt = s.now()
	s.state = next
	return nil
}

// Current returns a copy of the current attempt.
func (s *Session) Current() (Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Attempt{}, false
	}
	return *s.current, true
}

// BuiltFile returns the output of the last successful attempt.
func (s *Session) BuiltFile() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateBuilt || s.current == nil {
		return "", ErrNotBuilt
	}
	if success, ok := s.current.Result.(muxer.Success); ok {
		return success.File, nil
	}
	return s.current.Config.Output, nil
}
