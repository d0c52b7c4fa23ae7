// Package mjpegencoder writes Motion-JPEG video into a fragmented MP4 without
// any external tools.
package mjpegencoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

// DefaultQuality is the JPEG quality used when no quality hint is given.
const DefaultQuality = 85

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("mjpegencoder: encoder not initialized")

	// ErrNoFrames is returned when End is called without any encoded frame.
	ErrNoFrames = errors.New("mjpegencoder: no frames to encode")

	// ErrTimestampOrder is returned when a frame timestamp goes backwards.
	ErrTimestampOrder = errors.New("mjpegencoder: timestamps must not decrease")

	// ErrInvalidDimensions is returned for sizes that do not fit the sample entry.
	ErrInvalidDimensions = errors.New("mjpegencoder: invalid dimensions")

	// ErrInvalidFrameRate is returned for frame rates whose timescale does not fit the container.
	ErrInvalidFrameRate = errors.New("mjpegencoder: invalid frame rate")
)

// Encoder implements ports.VideoEncoder producing "jpeg" samples.
// Each frame is compressed on submission so no image is retained.
type Encoder struct {
	mu sync.Mutex

	width     int
	height    int
	timescale uint32
	opts      ports.EncoderOptions
	quality   int

	samples     [][]byte
	lastTsMs    int
	initialized bool
}

// New creates a new Motion-JPEG encoder.
func New() *Encoder {
	return &Encoder{}
}

// Begin initializes the encoder.
// Quality in opts is a JPEG quality between 1 and 100; Bitrate is ignored.
func (e *Encoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	timescale := math.Round(fps * SampleDuration)
	if math.IsNaN(timescale) || timescale < 1 || timescale > math.MaxUint32 {
		return fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}

	e.width = width
	e.height = height
	e.timescale = uint32(timescale)
	e.opts = opts
	if e.opts.Tracks < 1 {
		e.opts.Tracks = 1
	}
	e.quality = DefaultQuality
	if opts.Quality > 0 && opts.Quality <= 100 {
		e.quality = opts.Quality
	}
	e.samples = nil
	e.lastTsMs = 0
	e.initialized = true
	return nil
}

// EncodeFrame compresses a frame to JPEG.
func (e *Encoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ErrNotInitialized
	}
	if len(e.samples) > 0 && timestampMs < e.lastTsMs {
		return fmt.Errorf("%w: %d after %d", ErrTimestampOrder, timestampMs, e.lastTsMs)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("encode JPEG: %w", err)
	}

	e.samples = append(e.samples, buf.Bytes())
	e.lastTsMs = timestampMs
	return nil
}

// End writes the MP4 container and resets the encoder.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, ErrNotInitialized
	}
	defer e.reset()

	return e.buildMP4()
}

// Abort discards buffered samples.
func (e *Encoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Encoder) reset() {
	e.samples = nil
	e.initialized = false
}

var _ ports.VideoEncoder = (*Encoder)(nil)
