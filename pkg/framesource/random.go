package framesource

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/user/framemux/pkg/ports"
)

// RandomColor generates solid frames in pseudo-random colors.
// The color of frame i depends only on the seed and i, so frames can be
// produced lazily in any order and still form a stable sequence.
type RandomColor struct {
	width    int
	height   int
	n        int
	seed     uint64
	renderer ports.Renderer
}

// NewRandomColor creates a generator of n frames of the given size.
func NewRandomColor(width, height, n int, seed uint64, renderer ports.Renderer) *RandomColor {
	return &RandomColor{
		width:    width,
		height:   height,
		n:        n,
		seed:     seed,
		renderer: renderer,
	}
}

// Len returns the number of frames.
func (r *RandomColor) Len() int {
	return r.n
}

// Frame draws the frame at index.
func (r *RandomColor) Frame(ctx context.Context, index int) (image.Image, error) {
	if err := checkIndex(index, r.n); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas := r.renderer.CreateCanvas(r.width, r.height, color.Black)
	canvas.DrawRect(0, 0, r.width, r.height, r.ColorAt(index))
	return canvas.ToImage(), nil
}

// ColorAt returns the opaque color of frame index.
func (r *RandomColor) ColorAt(index int) color.RGBA {
	rng := rand.New(rand.NewPCG(r.seed, uint64(index)))
	return color.RGBA{
		R: uint8(rng.IntN(256)),
		G: uint8(rng.IntN(256)),
		B: uint8(rng.IntN(256)),
		A: 255,
	}
}

var _ ports.FrameSource = (*RandomColor)(nil)
