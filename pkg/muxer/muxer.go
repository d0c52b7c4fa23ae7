// Package muxer turns an ordered frame source into a single video file.
package muxer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/user/framemux/pkg/ports"
)

// Muxer runs muxing jobs.
type Muxer struct {
	factory  ports.EncoderFactory
	fs       ports.FileSystem
	sink     ports.DebugSink
	logger   ports.Logger
	progress ProgressFunc
}

// Option configures a Muxer.
type Option func(*Muxer)

// WithDebugSink saves every submitted frame and the result to sink.
func WithDebugSink(sink ports.DebugSink) Option {
	return func(m *Muxer) {
		m.sink = sink
	}
}

// WithProgress registers a progress callback. It runs on the job goroutine.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Muxer) {
		m.progress = fn
	}
}

// New creates a Muxer.
func New(factory ports.EncoderFactory, fs ports.FileSystem, logger ports.Logger, opts ...Option) *Muxer {
	m := &Muxer{
		factory: factory,
		fs:      fs,
		logger:  logger.WithComponent("muxer"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mux runs a job on the calling goroutine and returns its result.
// The error is non-nil only when the job could not start.
func (m *Muxer) Mux(ctx context.Context, cfg Config, src ports.FrameSource) (Result, error) {
	if err := m.check(cfg, src); err != nil {
		return nil, err
	}
	return m.run(ctx, cfg, src), nil
}

// MuxAsync starts a job on its own goroutine and returns immediately.
func (m *Muxer) MuxAsync(ctx context.Context, cfg Config, src ports.FrameSource) (*Job, error) {
	return m.start(ctx, cfg, src, nil)
}

// MuxWithListener starts a job on its own goroutine. The listener is called
// exactly once with the result.
func (m *Muxer) MuxWithListener(ctx context.Context, cfg Config, src ports.FrameSource, listener Listener) (*Job, error) {
	if listener == nil {
		return nil, fmt.Errorf("%w: nil listener", ErrConfigInvalid)
	}
	return m.start(ctx, cfg, src, listener)
}

func (m *Muxer) start(ctx context.Context, cfg Config, src ports.FrameSource, listener Listener) (*Job, error) {
	if err := m.check(cfg, src); err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := newJob(cancel)

	go func() {
		defer cancel()
		result := m.run(jobCtx, cfg, src)
		if job.deliver(result) && listener != nil {
			listener(result)
		}
	}()

	return job, nil
}

// check performs the synchronous validation shared by all entry points.
func (m *Muxer) check(cfg Config, src ports.FrameSource) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if src == nil || src.Len() == 0 {
		return fmt.Errorf("%w: no frames", ErrConfigInvalid)
	}
	if !m.factory.IsSupported(cfg.Codec) {
		return fmt.Errorf("%w: %s", ErrCodecUnsupported, cfg.Codec)
	}
	return nil
}

// run executes the job and always returns exactly one Result. A panic in
// the source or the encoder becomes a Failure in the phase it occurred.
func (m *Muxer) run(ctx context.Context, cfg Config, src ports.FrameSource) (result Result) {
	started := time.Now()
	total := src.Len()
	m.logger.Info("Muxing %d frames at %.2f fps with %s", total, cfg.FPS, cfg.Codec)

	var enc ports.VideoEncoder
	phase, frame := PhaseInit, -1
	defer func() {
		if r := recover(); r != nil {
			result = m.fail(cfg, enc, phase, frame, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	enc, err := m.factory.NewEncoder(cfg.Codec)
	if err != nil {
		return m.fail(cfg, nil, PhaseInit, -1, err)
	}

	opts := ports.EncoderOptions{
		Bitrate: cfg.Bitrate,
		Quality: cfg.Quality,
		Tracks:  cfg.TrackCount,
	}
	if err := enc.Begin(cfg.Width, cfg.Height, cfg.FPS, opts); err != nil {
		return m.fail(cfg, enc, PhaseInit, -1, err)
	}

	for i := 0; i < total; i++ {
		phase, frame = PhaseEncode, i
		if err := ctx.Err(); err != nil {
			return m.fail(cfg, enc, PhaseCancelled, i, err)
		}

		img, err := src.Frame(ctx, i)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return m.fail(cfg, enc, PhaseCancelled, i, err)
			}
			return m.fail(cfg, enc, PhaseEncode, i, err)
		}
		if img == nil {
			return m.fail(cfg, enc, PhaseEncode, i, ErrNilFrame)
		}

		if b := img.Bounds(); b.Dx() != cfg.Width || b.Dy() != cfg.Height {
			err := fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), cfg.Width, cfg.Height)
			return m.fail(cfg, enc, PhaseEncode, i, err)
		}

		if err := enc.EncodeFrame(img, Timestamp(i, cfg.FPS)); err != nil {
			return m.fail(cfg, enc, PhaseEncode, i, err)
		}

		if m.sink != nil && m.sink.Enabled() {
			if err := m.sink.SaveFrame(i, img); err != nil {
				m.logger.Warn("Failed to save debug frame %d: %s", i, err.Error())
			}
		}

		m.logger.Debug("Encoded frame %d/%d", i+1, total)
		if m.progress != nil {
			m.progress(i+1, total)
		}
	}

	phase, frame = PhaseWrite, -1
	if err := ctx.Err(); err != nil {
		return m.fail(cfg, enc, PhaseCancelled, -1, err)
	}

	data, err := enc.End()
	if err != nil {
		return m.fail(cfg, enc, PhaseWrite, -1, err)
	}
	m.logger.Debug("Container finalized: %d bytes", len(data))

	if err := m.fs.WriteFile(cfg.Output, data); err != nil {
		return m.fail(cfg, enc, PhaseWrite, -1, err)
	}
	m.logger.Info("Output written to %s", cfg.Output)

	success := Success{
		File:     cfg.Output,
		Frames:   total,
		Bytes:    int64(len(data)),
		Duration: VideoDuration(total, cfg.FPS),
		Elapsed:  time.Since(started),
		Codec:    cfg.Codec,
		Tracks:   cfg.TrackCount,
	}
	m.saveResult(cfg, success)
	return success
}

// fail releases the encoder, removes anything at the target path and
// builds the Failure.
func (m *Muxer) fail(cfg Config, enc ports.VideoEncoder, phase Phase, frame int, cause error) Result {
	if enc != nil {
		enc.Abort()
	}

	if exists, err := m.fs.Exists(cfg.Output); err == nil && exists {
		m.logger.Debug("Removing incomplete output %s", cfg.Output)
		if err := m.fs.Remove(cfg.Output); err != nil {
			m.logger.Warn("Failed to remove %s: %s", cfg.Output, err.Error())
		}
	}

	jobErr := &Error{Phase: phase, Frame: frame, Err: cause}
	m.logger.Warn("Job failed in %s phase: %s", string(phase), cause.Error())

	result := Failure{Err: jobErr}
	m.saveResult(cfg, result)
	return result
}

// resultRecord is the debug JSON form of a Result.
type resultRecord struct {
	Config    Config  `json:"config"`
	Succeeded bool    `json:"succeeded"`
	Frames    int     `json:"frames,omitempty"`
	Bytes     int64   `json:"bytes,omitempty"`
	Seconds   float64 `json:"seconds,omitempty"`
	Phase     Phase   `json:"phase,omitempty"`
	Frame     int     `json:"frame,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func (m *Muxer) saveResult(cfg Config, result Result) {
	if m.sink == nil || !m.sink.Enabled() {
		return
	}

	rec := resultRecord{Config: cfg, Succeeded: result.Succeeded()}
	switch r := result.(type) {
	case Success:
		rec.Frames = r.Frames
		rec.Bytes = r.Bytes
		rec.Seconds = r.Duration.Seconds()
	case Failure:
		rec.Phase = r.Err.Phase
		rec.Frame = r.Err.Frame
		rec.Error = r.Err.Error()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return
	}
	if err := m.sink.SaveResultJSON(data); err != nil {
		m.logger.Warn("Failed to save debug result: %s", err.Error())
	}
}
