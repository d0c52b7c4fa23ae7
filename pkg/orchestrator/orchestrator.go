// Package orchestrator drives the build screen: codec selection, building,
// playing and sharing, with every view update on the owner loop.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ideamans/go-l10n"

	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/ports"
	"github.com/user/framemux/pkg/reporter"
	"github.com/user/framemux/pkg/session"
)

// ErrPermissionDenied is returned by Build when writing to the output
// directory was not allowed.
var ErrPermissionDenied = errors.New("orchestrator: write permission denied")

// VideoMimeType is the MIME type handed to the platform when sharing.
const VideoMimeType = "video/mp4"

// Strategy selects how a build job reports back.
type Strategy int

const (
	// StrategyCallback runs the job with a completion listener.
	StrategyCallback Strategy = iota
	// StrategyAwait runs the job as an awaitable task.
	StrategyAwait
)

// String returns the flag form of the strategy.
func (s Strategy) String() string {
	if s == StrategyAwait {
		return "await"
	}
	return "callback"
}

// ParseStrategy parses "callback" or "await".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "callback":
		return StrategyCallback, nil
	case "await":
		return StrategyAwait, nil
	default:
		return StrategyCallback, fmt.Errorf("orchestrator: unknown strategy %q", s)
	}
}

// View is the UI boundary. All calls happen on the owner loop.
type View interface {
	SetActions(actions session.Actions)
	ShowMessage(msg string)
	Progress(done, total int)
	Completed(attempt session.Attempt, result muxer.Result)
}

// Settings describes the video every build produces.
type Settings struct {
	FileName   string
	Codec      string
	Width      int
	Height     int
	TrackCount int
	FPS        float64
	Bitrate    int
	Quality    int
	Strategy   Strategy
}

// Deps bundles the collaborators of an Orchestrator.
type Deps struct {
	Owner    reporter.Poster
	Factory  ports.EncoderFactory
	FS       ports.FileSystem
	Sink     ports.DebugSink
	Paths    ports.PathResolver
	Gate     ports.PermissionGate
	Launcher ports.Launcher
	View     View
	Logger   ports.Logger
}

// Orchestrator coordinates the session, the muxer and the platform.
// Its methods must be called on the owner loop.
type Orchestrator struct {
	owner    reporter.Poster
	session  *session.Session
	muxer    *muxer.Muxer
	reporter *reporter.Reporter
	paths    ports.PathResolver
	gate     ports.PermissionGate
	launcher ports.Launcher
	view     View
	logger   ports.Logger
	settings Settings

	job *muxer.Job
}

// New creates an Orchestrator.
func New(settings Settings, deps Deps) *Orchestrator {
	o := &Orchestrator{
		owner:    deps.Owner,
		session:  session.New(deps.Factory, settings.Codec),
		paths:    deps.Paths,
		gate:     deps.Gate,
		launcher: deps.Launcher,
		view:     deps.View,
		logger:   deps.Logger,
		settings: settings,
	}

	opts := []muxer.Option{muxer.WithProgress(o.onProgress)}
	if deps.Sink != nil {
		opts = append(opts, muxer.WithDebugSink(deps.Sink))
	}
	o.muxer = muxer.New(deps.Factory, deps.FS, deps.Logger, opts...)
	o.reporter = reporter.New(deps.Owner, o.session, deps.Logger)
	return o
}

// Session returns the session state machine.
func (o *Orchestrator) Session() *session.Session {
	return o.session
}

// Actions returns the currently available actions.
func (o *Orchestrator) Actions() session.Actions {
	return o.session.Actions()
}

// Refresh pushes the current actions to the view.
func (o *Orchestrator) Refresh() {
	o.view.SetActions(o.session.Actions())
}

// SelectCodec changes the codec for the next build.
func (o *Orchestrator) SelectCodec(codec string) error {
	if err := o.session.SelectCodec(codec); err != nil {
		o.logger.Warn("Codec %s is not supported", codec)
		o.view.ShowMessage(l10n.F("Codec %s is not supported", codec))
		return err
	}
	o.logger.Info("Codec %s selected", codec)
	return nil
}

// Build starts a job over src. It returns once the job is running; the
// result arrives through View.Completed.
func (o *Orchestrator) Build(ctx context.Context, src ports.FrameSource) error {
	if o.session.State() == session.StateBuilding {
		o.logger.Warn("Build already in progress")
		return session.ErrBuildInProgress
	}

	output, err := o.paths.Resolve(o.settings.FileName)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	dir := filepath.Dir(output)
	granted, err := o.gate.Request(ctx, dir)
	if err != nil {
		return fmt.Errorf("request permission: %w", err)
	}
	if !granted {
		o.logger.Warn("Write permission denied for %s", dir)
		o.view.ShowMessage(l10n.F("Write permission denied for %s", dir))
		return ErrPermissionDenied
	}

	cfg := muxer.Config{
		Output:     output,
		Width:      o.settings.Width,
		Height:     o.settings.Height,
		Codec:      o.session.Codec(),
		TrackCount: o.settings.TrackCount,
		FPS:        o.settings.FPS,
		Bitrate:    o.settings.Bitrate,
		Quality:    o.settings.Quality,
	}

	attempt, err := o.session.Begin(cfg)
	if err != nil {
		return err
	}
	o.view.SetActions(o.session.Actions())

	job, err := o.start(ctx, cfg, src, attempt.ID)
	if err != nil {
		_ = o.session.Rollback(attempt.ID)
		o.view.SetActions(o.session.Actions())
		o.logger.Error("There was an error muxing the video: %s", err.Error())
		o.view.ShowMessage(l10n.F("There was an error muxing the video: %s", err.Error()))
		return err
	}

	o.job = job
	o.logger.Info("Build started: %s", output)
	return nil
}

func (o *Orchestrator) start(ctx context.Context, cfg muxer.Config, src ports.FrameSource, attemptID string) (*muxer.Job, error) {
	switch o.settings.Strategy {
	case StrategyAwait:
		job, err := o.muxer.MuxAsync(ctx, cfg, src)
		if err != nil {
			return nil, err
		}
		o.reporter.Await(ctx, job, attemptID, o.onComplete)
		return job, nil
	default:
		return o.muxer.MuxWithListener(ctx, cfg, src, o.reporter.Listener(attemptID, o.onComplete))
	}
}

// onComplete runs on the owner loop after the session recorded the result.
func (o *Orchestrator) onComplete(attempt session.Attempt, result muxer.Result) {
	o.job = nil
	o.view.SetActions(o.session.Actions())

	switch r := result.(type) {
	case muxer.Success:
		o.logger.Info("Video muxed - file path: %s", r.File)
		o.view.ShowMessage(l10n.F("Video muxed - file path: %s", r.File))
	case muxer.Failure:
		o.logger.Error("There was an error muxing the video: %s", r.Err.Error())
		o.view.ShowMessage(l10n.F("There was an error muxing the video: %s", r.Err.Error()))
	}

	o.view.Completed(attempt, result)
}

// onProgress runs on the job goroutine.
func (o *Orchestrator) onProgress(done, total int) {
	o.owner.Post(func() {
		o.view.Progress(done, total)
	})
}

// Cancel stops the running job, if any.
func (o *Orchestrator) Cancel() {
	if o.job != nil {
		o.logger.Info("Interrupted, cancelling build...")
		o.job.Cancel()
	}
}

// Play opens the built video with the system player.
func (o *Orchestrator) Play(ctx context.Context) error {
	file, err := o.session.BuiltFile()
	if err != nil {
		return err
	}
	o.logger.Info("Playing %s", file)
	return o.launcher.Play(ctx, file)
}

// Share hands the built video to the platform.
func (o *Orchestrator) Share(ctx context.Context) error {
	file, err := o.session.BuiltFile()
	if err != nil {
		return err
	}
	o.logger.Info("Sharing video...")
	o.view.ShowMessage(l10n.T("Sharing video..."))
	return o.launcher.Share(ctx, file, VideoMimeType)
}
