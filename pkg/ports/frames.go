package ports

import (
	"context"
	"image"
)

// FrameSource yields a finite, ordered sequence of frames.
// Index order is playback order.
type FrameSource interface {
	// Len returns the number of frames. It does not change once the source
	// has been handed to a job.
	Len() int

	// Frame returns the frame at index. Implementations may build the image
	// on demand; callers must not hold on to it after encoding.
	Frame(ctx context.Context, index int) (image.Image, error)
}

// FrameResolver turns a lightweight descriptor (such as a file path) into a frame.
type FrameResolver interface {
	Resolve(ctx context.Context, descriptor string) (image.Image, error)
}
