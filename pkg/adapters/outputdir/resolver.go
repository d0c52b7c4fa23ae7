// Package outputdir resolves output file names inside a single directory.
package outputdir

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/user/framemux/pkg/ports"
)

// ErrInvalidName is returned for empty names or names containing a path.
var ErrInvalidName = errors.New("outputdir: invalid file name")

// Resolver implements ports.PathResolver.
type Resolver struct {
	dir string
	fs  ports.FileSystem
}

// DefaultDir returns the user's Videos directory.
func DefaultDir() string {
	if xdg.UserDirs.Videos != "" {
		return xdg.UserDirs.Videos
	}
	return filepath.Join(xdg.Home, "Videos")
}

// New creates a Resolver for dir. An empty dir means DefaultDir.
func New(dir string, fs ports.FileSystem) *Resolver {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Resolver{dir: dir, fs: fs}
}

// Dir returns the directory files are resolved into.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve creates the directory if needed and returns the full path for name.
func (r *Resolver) Resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := r.fs.MkdirAll(r.dir); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return filepath.Join(r.dir, name), nil
}

var _ ports.PathResolver = (*Resolver)(nil)
