// Package ports defines the interfaces the muxing core depends on.
package ports

import (
	"image"
)

// VideoEncoder abstracts a codec plus container writer.
type VideoEncoder interface {
	// Begin initializes the encoder with the specified dimensions and frame rate.
	Begin(width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame encodes a single frame at the specified timestamp.
	// The encoder must not retain img after returning.
	EncodeFrame(img image.Image, timestampMs int) error

	// End finalizes the container and returns the video data.
	End() ([]byte, error)

	// Abort discards any partial output and releases resources.
	// It is safe to call at any point, including after End.
	Abort()
}

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Bitrate int // Target bitrate in bits per second
	Quality int // Codec-specific quality hint, 0 selects the encoder default
	Tracks  int // Number of video tracks carrying the frame sequence
}
