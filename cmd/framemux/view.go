package main

import (
	"fmt"
	"io"

	"github.com/ideamans/go-l10n"

	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/ports"
	"github.com/user/framemux/pkg/session"
)

// outcome is what the view hands back to main once a build finishes.
type outcome struct {
	attempt session.Attempt
	result  muxer.Result
}

// consoleView implements orchestrator.View on a terminal.
// All methods run on the owner loop.
type consoleView struct {
	out    io.Writer
	tty    bool
	logger ports.Logger

	lastStep int
	done     chan outcome
}

func newConsoleView(out io.Writer, tty bool, logger ports.Logger) *consoleView {
	return &consoleView{
		out:      out,
		tty:      tty,
		logger:   logger,
		lastStep: -1,
		done:     make(chan outcome, 1),
	}
}

func (v *consoleView) SetActions(a session.Actions) {
	v.logger.Debug("Actions: build=%t play=%t share=%t", a.Build, a.Play, a.Share)
}

func (v *consoleView) ShowMessage(msg string) {
	fmt.Fprintln(v.out, msg)
}

func (v *consoleView) Progress(done, total int) {
	if total <= 0 {
		return
	}
	pct := done * 100 / total
	if v.tty {
		fmt.Fprintf(v.out, "\r%s %3d%% (%d/%d)", l10n.T("Muxing"), pct, done, total)
		if done == total {
			fmt.Fprintln(v.out)
		}
		return
	}
	// Plain output every 10%.
	if step := pct / 10; step != v.lastStep {
		v.lastStep = step
		fmt.Fprintf(v.out, "%s %d%% (%d/%d)\n", l10n.T("Muxing"), pct, done, total)
	}
}

func (v *consoleView) Completed(attempt session.Attempt, result muxer.Result) {
	v.done <- outcome{attempt: attempt, result: result}
}
