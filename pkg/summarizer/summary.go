package summarizer

import (
	"time"

	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/probe"
	"github.com/user/framemux/pkg/session"
)

// Summary contains all data collected for one build attempt.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `yaml:"generated_at"`

	// Attempt identity and timing
	Attempt AttemptInfo `yaml:"attempt"`

	// Requested video
	Settings Settings `yaml:"settings"`

	// Outcome of the job
	Result ResultInfo `yaml:"result"`

	// Findings from probing the written file, nil when not probed
	Container *ContainerInfo `yaml:"container,omitempty"`
}

// AttemptInfo identifies the attempt.
type AttemptInfo struct {
	ID         string    `yaml:"id"`
	Strategy   string    `yaml:"strategy,omitempty"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
}

// Settings contains the requested video configuration.
type Settings struct {
	Codec      string  `yaml:"codec"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TrackCount int     `yaml:"track_count"`
	FPS        float64 `yaml:"fps"`
	Bitrate    int     `yaml:"bitrate"`
	Quality    int     `yaml:"quality,omitempty"`
}

// ResultInfo contains the job result.
type ResultInfo struct {
	Succeeded  bool   `yaml:"succeeded"`
	File       string `yaml:"file,omitempty"`
	Frames     int    `yaml:"frames,omitempty"`
	Bytes      int64  `yaml:"bytes,omitempty"`
	DurationMs int64  `yaml:"duration_ms,omitempty"`
	ElapsedMs  int64  `yaml:"elapsed_ms,omitempty"`

	// Failure details
	Phase string `yaml:"phase,omitempty"`
	Frame *int   `yaml:"frame,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// ContainerInfo contains what the probe found in the output file.
type ContainerInfo struct {
	Fragmented bool        `yaml:"fragmented"`
	Tracks     []TrackInfo `yaml:"tracks"`
}

// TrackInfo describes one probed track.
type TrackInfo struct {
	ID          uint32 `yaml:"id"`
	Format      string `yaml:"format"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	CodedWidth  int    `yaml:"coded_width,omitempty"`
	CodedHeight int    `yaml:"coded_height,omitempty"`
	Samples     int    `yaml:"samples"`
	DurationMs  int64  `yaml:"duration_ms"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithAttempt sets the attempt identity, its settings and its result.
func (b *Builder) WithAttempt(a session.Attempt) *Builder {
	b.summary.Attempt.ID = a.ID
	b.summary.Attempt.StartedAt = a.StartedAt
	b.summary.Attempt.FinishedAt = a.FinishedAt
	b.summary.Settings = Settings{
		Codec:      a.Config.Codec,
		Width:      a.Config.Width,
		Height:     a.Config.Height,
		TrackCount: a.Config.TrackCount,
		FPS:        a.Config.FPS,
		Bitrate:    a.Config.Bitrate,
		Quality:    a.Config.Quality,
	}
	if a.Result != nil {
		b.WithResult(a.Result)
	}
	return b
}

// WithStrategy records how the job reported back.
func (b *Builder) WithStrategy(strategy string) *Builder {
	b.summary.Attempt.Strategy = strategy
	return b
}

// WithResult sets the job result.
func (b *Builder) WithResult(result muxer.Result) *Builder {
	switch r := result.(type) {
	case muxer.Success:
		b.summary.Result = ResultInfo{
			Succeeded:  true,
			File:       r.File,
			Frames:     r.Frames,
			Bytes:      r.Bytes,
			DurationMs: r.Duration.Milliseconds(),
			ElapsedMs:  r.Elapsed.Milliseconds(),
		}
	case muxer.Failure:
		info := ResultInfo{Phase: string(r.Phase())}
		if r.Err != nil {
			info.Error = r.Err.Error()
			if r.Err.Err != nil {
				info.Error = r.Err.Err.Error()
			}
			if r.Err.Frame >= 0 {
				frame := r.Err.Frame
				info.Frame = &frame
			}
		}
		b.summary.Result = info
	}
	return b
}

// WithProbe sets the container findings.
func (b *Builder) WithProbe(info *probe.Info) *Builder {
	if info == nil {
		b.summary.Container = nil
		return b
	}
	c := &ContainerInfo{Fragmented: info.Fragmented}
	for _, t := range info.Tracks {
		c.Tracks = append(c.Tracks, TrackInfo{
			ID:          t.ID,
			Format:      t.Format,
			Width:       t.Width,
			Height:      t.Height,
			CodedWidth:  t.CodedWidth,
			CodedHeight: t.CodedHeight,
			Samples:     t.Samples,
			DurationMs:  t.Duration.Milliseconds(),
		})
	}
	b.summary.Container = c
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
