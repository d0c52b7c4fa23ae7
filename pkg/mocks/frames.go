package mocks

import (
	"context"
	"image"

	"github.com/user/framemux/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource.
type FrameSource struct {
	N         int
	FrameFunc func(ctx context.Context, index int) (image.Image, error)
}

func (m *FrameSource) Len() int {
	return m.N
}

func (m *FrameSource) Frame(ctx context.Context, index int) (image.Image, error) {
	return m.FrameFunc(ctx, index)
}

var _ ports.FrameSource = (*FrameSource)(nil)
