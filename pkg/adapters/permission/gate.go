// Package permission checks that the output directory can be written.
package permission

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/user/framemux/pkg/ports"
)

// Gate implements ports.PermissionGate by creating and removing a probe
// file in the directory.
type Gate struct {
	logger ports.Logger
}

// New creates a Gate.
func New(logger ports.Logger) *Gate {
	return &Gate{logger: logger.WithComponent("permission")}
}

// Request reports whether dir is writable. Permission errors are a denial,
// other failures are returned as errors.
func (g *Gate) Request(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			g.logger.Debug("Cannot create %s: %s", dir, err.Error())
			return false, nil
		}
		return false, err
	}

	f, err := os.CreateTemp(dir, ".framemux-probe-*")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			g.logger.Debug("Cannot write to %s: %s", dir, err.Error())
			return false, nil
		}
		return false, err
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		g.logger.Warn("Failed to remove %s: %s", name, err.Error())
	}
	return true, nil
}

var _ ports.PermissionGate = (*Gate)(nil)
