// Package framesource provides ordered frame sources for the muxer.
package framesource

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/user/framemux/pkg/ports"
)

// ErrIndexOutOfRange is returned when a frame index is outside [0, Len()).
var ErrIndexOutOfRange = errors.New("framesource: index out of range")

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, n)
	}
	return nil
}

// Materialized is a source backed by frames already held in memory.
type Materialized struct {
	frames []image.Image
}

// NewMaterialized creates a source over frames. The slice is copied; the
// images themselves are shared.
func NewMaterialized(frames []image.Image) *Materialized {
	return &Materialized{frames: append([]image.Image(nil), frames...)}
}

// Len returns the number of frames.
func (m *Materialized) Len() int {
	return len(m.frames)
}

// Frame returns the frame at index.
func (m *Materialized) Frame(ctx context.Context, index int) (image.Image, error) {
	if err := checkIndex(index, len(m.frames)); err != nil {
		return nil, err
	}
	return m.frames[index], nil
}

var _ ports.FrameSource = (*Materialized)(nil)

// Materialize renders every frame of src up front using at most workers
// goroutines. Order is preserved.
func Materialize(ctx context.Context, src ports.FrameSource, workers int, logger ports.Logger) (*Materialized, error) {
	n := src.Len()
	if workers < 1 {
		workers = 1
	}
	logger.Debug("Materializing %d frames with %d workers", n, workers)

	frames := make([]image.Image, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := src.Frame(gctx, i)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			frames[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Materialized{frames: frames}, nil
}
