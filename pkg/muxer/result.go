package muxer

import (
	"time"
)

// Result is the outcome of a job: either Success or Failure.
type Result interface {
	// Succeeded reports whether the output file was written.
	Succeeded() bool
	isResult()
}

// Success describes a written output file.
type Success struct {
	File     string
	Frames   int
	Bytes    int64
	Duration time.Duration // playback length
	Elapsed  time.Duration // wall time spent muxing
	Codec    string
	Tracks   int
}

func (Success) Succeeded() bool { return true }
func (Success) isResult()       {}

// Failure describes a job that produced no output.
type Failure struct {
	Err *Error
}

func (Failure) Succeeded() bool { return false }
func (Failure) isResult()       {}

// Phase returns the phase the job failed in.
func (f Failure) Phase() Phase {
	if f.Err == nil {
		return ""
	}
	return f.Err.Phase
}

// Listener receives the result of a job started with MuxWithListener.
// It runs on the job's goroutine.
type Listener func(Result)

// ProgressFunc is called after each frame is submitted to the encoder.
type ProgressFunc func(done, total int)
