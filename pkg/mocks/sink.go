package mocks

import (
	"image"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames     map[int]image.Image
	ResultJSON []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

func (m *DebugSink) SaveResultJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultJSON = data
	return nil
}

// FrameCount returns the number of saved frames.
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
