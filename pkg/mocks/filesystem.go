package mocks

import (
	"fmt"
	"io/fs"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

// FileSystem is an in-memory mock implementation of ports.FileSystem.
// It records removals so tests can check failure cleanup.
type FileSystem struct {
	mu      sync.RWMutex
	files   map[string][]byte
	dirs    map[string]bool
	removed []string

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
	ExistsFunc    func(path string) (bool, error)
	RemoveFunc    func(path string) error
}

// NewFileSystem creates a new mock FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// Put stores a file without going through WriteFileFunc.
func (m *FileSystem) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.Put(path, data)
	return nil
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *FileSystem) Exists(path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

func (m *FileSystem) Remove(path string) error {
	m.mu.Lock()
	m.removed = append(m.removed, path)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	delete(m.dirs, path)
	return nil
}

// GetFile returns the contents of a file.
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	return data, ok
}

// Removed returns the paths passed to Remove, in call order.
func (m *FileSystem) Removed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.removed...)
}

var _ ports.FileSystem = (*FileSystem)(nil)
