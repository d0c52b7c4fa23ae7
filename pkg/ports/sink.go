package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves a frame as it was submitted to the encoder.
	SaveFrame(index int, img image.Image) error

	// SaveResultJSON saves the job outcome as JSON.
	SaveResultJSON(data []byte) error
}
