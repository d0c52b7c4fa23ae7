package framesource

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/framemux/pkg/ports"
)

// Resolved is a source of lightweight descriptors turned into frames on demand.
type Resolved struct {
	descriptors []string
	resolver    ports.FrameResolver
}

// NewResolved creates a source over descriptors in playback order.
func NewResolved(descriptors []string, resolver ports.FrameResolver) *Resolved {
	return &Resolved{
		descriptors: append([]string(nil), descriptors...),
		resolver:    resolver,
	}
}

// Len returns the number of descriptors.
func (r *Resolved) Len() int {
	return len(r.descriptors)
}

// Frame resolves the descriptor at index.
func (r *Resolved) Frame(ctx context.Context, index int) (image.Image, error) {
	if err := checkIndex(index, len(r.descriptors)); err != nil {
		return nil, err
	}
	return r.resolver.Resolve(ctx, r.descriptors[index])
}

var _ ports.FrameSource = (*Resolved)(nil)

// FileResolver loads image files and scales them to the target size.
type FileResolver struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	width    int
	height   int
	logger   ports.Logger
}

// NewFileResolver creates a resolver producing width x height frames.
func NewFileResolver(fs ports.FileSystem, renderer ports.Renderer, width, height int, logger ports.Logger) *FileResolver {
	return &FileResolver{
		fs:       fs,
		renderer: renderer,
		width:    width,
		height:   height,
		logger:   logger,
	}
}

// Resolve reads and decodes the image at path.
func (f *FileResolver) Resolve(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.logger.Debug("Loading frame %s", path)
	data, err := f.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	img, err := f.renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return f.renderer.ResizeImage(img, f.width, f.height), nil
}

var _ ports.FrameResolver = (*FileResolver)(nil)

// imageExts lists the file extensions ListImages accepts.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ListImages returns the image files in dir sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
