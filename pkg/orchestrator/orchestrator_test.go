package orchestrator

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/framemux/pkg/adapters/logger"
	"github.com/user/framemux/pkg/adapters/osfilesystem"
	"github.com/user/framemux/pkg/dispatch"
	"github.com/user/framemux/pkg/framesource"
	"github.com/user/framemux/pkg/mocks"
	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/ports"
	"github.com/user/framemux/pkg/session"
)

// ownerLoop marks when a posted function is running so the view can check
// that it is only called on the owner loop.
type ownerLoop struct {
	*dispatch.Loop
	active atomic.Bool
}

func (l *ownerLoop) Post(fn func()) bool {
	return l.Loop.Post(func() {
		l.active.Store(true)
		defer l.active.Store(false)
		fn()
	})
}

// run executes fn on the loop and waits for it.
func (l *ownerLoop) run(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		t.Fatal("loop closed")
	}
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("loop did not run function")
	}
}

type completion struct {
	attempt session.Attempt
	result  muxer.Result
}

type fakeView struct {
	loop *ownerLoop

	offLoop   atomic.Int32
	actions   []session.Actions
	messages  []string
	progress  int
	completed chan completion
}

func (v *fakeView) check() {
	if !v.loop.active.Load() {
		v.offLoop.Add(1)
	}
}

func (v *fakeView) SetActions(a session.Actions) {
	v.check()
	v.actions = append(v.actions, a)
}

func (v *fakeView) ShowMessage(msg string) {
	v.check()
	v.messages = append(v.messages, msg)
}

func (v *fakeView) Progress(done, total int) {
	v.check()
	v.progress = done
}

func (v *fakeView) Completed(attempt session.Attempt, result muxer.Result) {
	v.check()
	v.completed <- completion{attempt: attempt, result: result}
}

func (v *fakeView) wait(t *testing.T) completion {
	t.Helper()
	select {
	case c := <-v.completed:
		return c
	case <-time.After(10 * time.Second):
		t.Fatal("build did not complete")
		return completion{}
	}
}

type harness struct {
	loop     *ownerLoop
	view     *fakeView
	factory  *mocks.EncoderFactory
	gate     *mocks.PermissionGate
	launcher *mocks.Launcher
	dir      string
	orch     *Orchestrator
}

func defaultSettings() Settings {
	return Settings{
		FileName:   "test.mp4",
		Codec:      ports.CodecAVC,
		Width:      720,
		Height:     1280,
		TrackCount: 1,
		FPS:        30,
		Bitrate:    1500000,
	}
}

func newHarness(t *testing.T, settings Settings) *harness {
	t.Helper()
	loop := &ownerLoop{Loop: dispatch.New()}
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Stopped()
	})

	h := &harness{
		loop:     loop,
		view:     &fakeView{loop: loop, completed: make(chan completion, 4)},
		factory:  mocks.NewEncoderFactory(ports.CodecAVC, ports.CodecMJPEG),
		gate:     &mocks.PermissionGate{Granted: true},
		launcher: &mocks.Launcher{},
		dir:      t.TempDir(),
	}
	h.orch = New(settings, Deps{
		Owner:    loop,
		Factory:  h.factory,
		FS:       osfilesystem.New(),
		Paths:    &mocks.PathResolver{Dir: h.dir},
		Gate:     h.gate,
		Launcher: h.launcher,
		View:     h.view,
		Logger:   logger.NewNoop(),
	})
	return h
}

func (h *harness) build(t *testing.T, src ports.FrameSource) error {
	t.Helper()
	var err error
	h.loop.run(t, func() { err = h.orch.Build(context.Background(), src) })
	return err
}

func generated(n int) ports.FrameSource {
	return framesource.NewRandomColor(720, 1280, n, 1, &mocks.Renderer{})
}

// blockingSource holds frame 0 until its context ends.
func blockingSource(started chan<- struct{}) ports.FrameSource {
	return &mocks.FrameSource{N: 10, FrameFunc: func(ctx context.Context, i int) (image.Image, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

func TestBuildDefaultScenario(t *testing.T) {
	for _, strategy := range []Strategy{StrategyCallback, StrategyAwait} {
		t.Run(strategy.String(), func(t *testing.T) {
			settings := defaultSettings()
			settings.Strategy = strategy
			h := newHarness(t, settings)

			if err := h.build(t, generated(300)); err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			c := h.view.wait(t)

			success, ok := c.result.(muxer.Success)
			if !ok {
				t.Fatalf("expected Success, got %#v", c.result)
			}
			want := filepath.Join(h.dir, "test.mp4")
			if success.File != want || success.Frames != 300 {
				t.Errorf("unexpected result: %+v", success)
			}
			if _, err := os.Stat(want); err != nil {
				t.Errorf("expected output file: %v", err)
			}

			var actions session.Actions
			var state session.State
			var progress int
			h.loop.run(t, func() {
				actions = h.orch.Actions()
				state = h.orch.Session().State()
				progress = h.view.progress
			})
			if state != session.StateBuilt {
				t.Errorf("expected built, got %s", state)
			}
			if actions != (session.Actions{Build: true, Play: true, Share: true}) {
				t.Errorf("unexpected actions: %+v", actions)
			}
			if progress != 300 {
				t.Errorf("expected progress 300, got %d", progress)
			}
			if c.attempt.Config.Codec != ports.CodecAVC || c.attempt.Config.Bitrate != 1500000 {
				t.Errorf("unexpected attempt config: %+v", c.attempt.Config)
			}
			if n := h.view.offLoop.Load(); n != 0 {
				t.Errorf("view called off the owner loop %d times", n)
			}

			enc := h.factory.Last()
			if got := len(enc.Calls()); got != 300 {
				t.Errorf("expected 300 encoded frames, got %d", got)
			}
		})
	}
}

func TestBuildPermissionDenied(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.gate.Granted = false

	err := h.build(t, generated(3))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(h.factory.Created) != 0 {
		t.Error("muxer must not run without permission")
	}
	if len(h.gate.Requests) != 1 || h.gate.Requests[0] != h.dir {
		t.Errorf("unexpected permission requests: %v", h.gate.Requests)
	}
	if h.orch.Session().State() != session.StateIdle {
		t.Errorf("expected idle, got %s", h.orch.Session().State())
	}
}

func TestSelectUnsupportedCodec(t *testing.T) {
	h := newHarness(t, defaultSettings())

	var err error
	h.loop.run(t, func() { err = h.orch.SelectCodec(ports.CodecHEVC) })
	if !errors.Is(err, muxer.ErrCodecUnsupported) {
		t.Fatalf("expected ErrCodecUnsupported, got %v", err)
	}
	if got := h.orch.Session().Codec(); got != ports.CodecAVC {
		t.Errorf("expected prior codec to stay active, got %s", got)
	}
	if len(h.view.messages) != 1 {
		t.Errorf("expected a rejection message, got %v", h.view.messages)
	}

	h.loop.run(t, func() { err = h.orch.SelectCodec(ports.CodecMJPEG) })
	if err != nil {
		t.Fatal(err)
	}
	if got := h.orch.Session().Codec(); got != ports.CodecMJPEG {
		t.Errorf("expected mjpeg, got %s", got)
	}
}

func TestBuildRejectedCodecRollsBack(t *testing.T) {
	settings := defaultSettings()
	settings.Codec = ports.CodecHEVC
	h := newHarness(t, settings)

	err := h.build(t, generated(3))
	if !errors.Is(err, muxer.ErrCodecUnsupported) {
		t.Fatalf("expected ErrCodecUnsupported, got %v", err)
	}
	if st := h.orch.Session().State(); st != session.StateIdle {
		t.Errorf("expected idle after rejected start, got %s", st)
	}
	last := h.view.actions[len(h.view.actions)-1]
	if last != (session.Actions{Build: true}) {
		t.Errorf("expected build to be re-enabled, got %+v", last)
	}
}

func TestBuildWhileBuilding(t *testing.T) {
	h := newHarness(t, defaultSettings())
	started := make(chan struct{})

	if err := h.build(t, blockingSource(started)); err != nil {
		t.Fatal(err)
	}
	<-started

	if err := h.build(t, generated(3)); !errors.Is(err, session.ErrBuildInProgress) {
		t.Errorf("expected ErrBuildInProgress, got %v", err)
	}

	h.loop.run(t, h.orch.Cancel)
	h.view.wait(t)
}

func TestCancelBuild(t *testing.T) {
	h := newHarness(t, defaultSettings())
	started := make(chan struct{})

	if err := h.build(t, blockingSource(started)); err != nil {
		t.Fatal(err)
	}
	<-started
	h.loop.run(t, h.orch.Cancel)

	c := h.view.wait(t)
	failure, ok := c.result.(muxer.Failure)
	if !ok || failure.Phase() != muxer.PhaseCancelled {
		t.Fatalf("expected cancelled failure, got %#v", c.result)
	}
	if st := h.orch.Session().State(); st != session.StateFailed {
		t.Errorf("expected failed, got %s", st)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "test.mp4")); !os.IsNotExist(err) {
		t.Error("cancelled build left an output file")
	}
}

func TestPlayAndShare(t *testing.T) {
	h := newHarness(t, defaultSettings())
	ctx := context.Background()

	if err := h.orch.Play(ctx); !errors.Is(err, session.ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt, got %v", err)
	}
	if err := h.orch.Share(ctx); !errors.Is(err, session.ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt, got %v", err)
	}

	if err := h.build(t, generated(2)); err != nil {
		t.Fatal(err)
	}
	h.view.wait(t)

	var playErr, shareErr error
	h.loop.run(t, func() {
		playErr = h.orch.Play(ctx)
		shareErr = h.orch.Share(ctx)
	})
	if playErr != nil || shareErr != nil {
		t.Fatalf("play: %v, share: %v", playErr, shareErr)
	}

	want := filepath.Join(h.dir, "test.mp4")
	if len(h.launcher.Played) != 1 || h.launcher.Played[0] != want {
		t.Errorf("unexpected plays: %v", h.launcher.Played)
	}
	if len(h.launcher.Shared) != 1 || h.launcher.Shared[0] != (mocks.SharedFile{Path: want, MimeType: VideoMimeType}) {
		t.Errorf("unexpected shares: %v", h.launcher.Shared)
	}
}

func TestFailedBuildReportsFailure(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.factory.NewEncoderFunc = func(string) (ports.VideoEncoder, error) {
		return &mocks.VideoEncoder{EndFunc: func() ([]byte, error) { return nil, errors.New("mux error") }}, nil
	}

	if err := h.build(t, generated(2)); err != nil {
		t.Fatal(err)
	}
	c := h.view.wait(t)

	if f, ok := c.result.(muxer.Failure); !ok || f.Phase() != muxer.PhaseWrite {
		t.Fatalf("expected write failure, got %#v", c.result)
	}
	var actions session.Actions
	h.loop.run(t, func() { actions = h.orch.Actions() })
	if actions != (session.Actions{Build: true}) {
		t.Errorf("unexpected actions after failure: %+v", actions)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": StrategyCallback, "callback": StrategyCallback, "await": StrategyAwait} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("threads"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
