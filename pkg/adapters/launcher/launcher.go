// Package launcher hands finished videos to the desktop.
package launcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/browser"

	"github.com/user/framemux/pkg/ports"
)

// Launcher implements ports.Launcher with the system file handlers.
// Desktops have no share sheet, so Share reveals the containing folder.
type Launcher struct {
	logger   ports.Logger
	openFile func(path string) error
}

// New creates a Launcher.
func New(logger ports.Logger) *Launcher {
	return &Launcher{
		logger:   logger.WithComponent("launcher"),
		openFile: browser.OpenFile,
	}
}

// Play opens the video with the default player.
func (l *Launcher) Play(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.openFile(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// Share opens the folder holding the video so it can be passed on.
func (l *Launcher) Share(ctx context.Context, path, mimeType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("Sharing %s (%s)", path, mimeType)
	dir := filepath.Dir(path)
	if err := l.openFile(dir); err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	return nil
}

var _ ports.Launcher = (*Launcher)(nil)
