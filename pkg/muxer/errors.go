package muxer

import (
	"errors"
	"fmt"
)

var (
	// ErrCodecUnsupported is returned synchronously when the codec cannot be encoded here.
	ErrCodecUnsupported = errors.New("muxer: codec not supported")

	// ErrConfigInvalid is returned synchronously for invalid configs and empty sources.
	ErrConfigInvalid = errors.New("muxer: invalid config")

	// ErrEncoderInit marks failures while creating or starting the encoder.
	ErrEncoderInit = errors.New("muxer: encoder initialization failed")

	// ErrFrameEncode marks failures while producing or submitting a frame.
	ErrFrameEncode = errors.New("muxer: frame encoding failed")

	// ErrContainerWrite marks failures while finalizing or writing the container.
	ErrContainerWrite = errors.New("muxer: container write failed")

	// ErrCancelled marks jobs stopped by cancellation.
	ErrCancelled = errors.New("muxer: job cancelled")

	// ErrFrameSize is the cause recorded when a frame does not match the configured size.
	ErrFrameSize = errors.New("muxer: frame size mismatch")

	// ErrNilFrame is the cause recorded when a source yields no image and no error.
	ErrNilFrame = errors.New("muxer: source returned no frame")

	// ErrPanic wraps a panic raised by the source or the encoder.
	ErrPanic = errors.New("muxer: job panicked")
)

// Phase identifies where a job failed.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseEncode    Phase = "encode"
	PhaseWrite     Phase = "write"
	PhaseCancelled Phase = "cancelled"
)

// Sentinel returns the error matching the phase.
func (p Phase) Sentinel() error {
	switch p {
	case PhaseInit:
		return ErrEncoderInit
	case PhaseEncode:
		return ErrFrameEncode
	case PhaseWrite:
		return ErrContainerWrite
	case PhaseCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Error is the failure carried by a Failure result.
// errors.Is matches both the phase sentinel and the underlying cause.
type Error struct {
	Phase Phase
	// Frame is the index being processed, or -1 outside the frame loop.
	Frame int
	Err   error
}

func (e *Error) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("muxer: %s failed at frame %d: %v", e.Phase, e.Frame, e.Err)
	}
	return fmt.Sprintf("muxer: %s failed: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Err}
	if s := e.Phase.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	return errs
}
