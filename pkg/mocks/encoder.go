package mocks

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
// It is safe for use from the job goroutine while a test inspects it.
type VideoEncoder struct {
	BeginFunc       func(width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image, timestampMs int) error
	EndFunc         func() ([]byte, error)

	mu sync.Mutex

	// Recorded calls for verification
	BeginCalled      bool
	BeginOptions     ports.EncoderOptions
	EncodeFrameCalls []EncodeFrameCall
	EndCalled        bool
	AbortCalled      bool
}

// EncodeFrameCall records a call to EncodeFrame.
type EncodeFrameCall struct {
	TimestampMs int
	Bounds      image.Rectangle
	// Pixel is the color at the top-left corner of the submitted frame.
	Pixel [4]uint32
}

func (m *VideoEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	m.mu.Lock()
	m.BeginCalled = true
	m.BeginOptions = opts
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	b := img.Bounds()
	r, g, bl, a := img.At(b.Min.X, b.Min.Y).RGBA()
	m.mu.Lock()
	m.EncodeFrameCalls = append(m.EncodeFrameCalls, EncodeFrameCall{
		TimestampMs: timestampMs,
		Bounds:      b,
		Pixel:       [4]uint32{r, g, bl, a},
	})
	m.mu.Unlock()
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img, timestampMs)
	}
	return nil
}

func (m *VideoEncoder) End() ([]byte, error) {
	m.mu.Lock()
	m.EndCalled = true
	m.mu.Unlock()
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	// Minimal ftyp box
	return []byte{0, 0, 0, 8, 'f', 't', 'y', 'p'}, nil
}

func (m *VideoEncoder) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AbortCalled = true
}

// Calls returns a copy of the recorded EncodeFrame calls.
func (m *VideoEncoder) Calls() []EncodeFrameCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EncodeFrameCall(nil), m.EncodeFrameCalls...)
}

// Aborted reports whether Abort was called.
func (m *VideoEncoder) Aborted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AbortCalled
}

// Ended reports whether End was called.
func (m *VideoEncoder) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.EndCalled
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

// EncoderFactory is a mock implementation of ports.EncoderFactory.
type EncoderFactory struct {
	// Supported lists the codecs IsSupported accepts.
	Supported map[string]bool

	// NewEncoderFunc overrides encoder creation. By default a fresh
	// VideoEncoder is created and recorded in Created.
	NewEncoderFunc func(codec string) (ports.VideoEncoder, error)

	mu      sync.Mutex
	Created []*VideoEncoder
}

// NewEncoderFactory creates a factory that supports the given codecs.
func NewEncoderFactory(codecs ...string) *EncoderFactory {
	supported := make(map[string]bool, len(codecs))
	for _, c := range codecs {
		supported[c] = true
	}
	return &EncoderFactory{Supported: supported}
}

func (m *EncoderFactory) IsSupported(codec string) bool {
	return m.Supported[codec]
}

func (m *EncoderFactory) NewEncoder(codec string) (ports.VideoEncoder, error) {
	if m.NewEncoderFunc != nil {
		return m.NewEncoderFunc(codec)
	}
	if !m.Supported[codec] {
		return nil, fmt.Errorf("mock: unsupported codec %s", codec)
	}
	enc := &VideoEncoder{}
	m.mu.Lock()
	m.Created = append(m.Created, enc)
	m.mu.Unlock()
	return enc, nil
}

// Last returns the most recently created encoder, or nil.
func (m *EncoderFactory) Last() *VideoEncoder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Created) == 0 {
		return nil
	}
	return m.Created[len(m.Created)-1]
}

var _ ports.EncoderFactory = (*EncoderFactory)(nil)
