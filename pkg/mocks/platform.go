package mocks

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

// PathResolver is a mock implementation of ports.PathResolver.
// By default it joins the name onto Dir.
type PathResolver struct {
	Dir         string
	ResolveFunc func(name string) (string, error)
}

func (m *PathResolver) Resolve(name string) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(name)
	}
	return filepath.Join(m.Dir, name), nil
}

var _ ports.PathResolver = (*PathResolver)(nil)

// PermissionGate is a mock implementation of ports.PermissionGate.
type PermissionGate struct {
	Granted     bool
	RequestFunc func(ctx context.Context, dir string) (bool, error)

	mu       sync.Mutex
	Requests []string
}

func (m *PermissionGate) Request(ctx context.Context, dir string) (bool, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, dir)
	m.mu.Unlock()
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, dir)
	}
	return m.Granted, nil
}

var _ ports.PermissionGate = (*PermissionGate)(nil)

// Launcher is a mock implementation of ports.Launcher.
type Launcher struct {
	PlayFunc  func(ctx context.Context, path string) error
	ShareFunc func(ctx context.Context, path, mimeType string) error

	mu     sync.Mutex
	Played []string
	Shared []SharedFile
}

// SharedFile records a call to Share.
type SharedFile struct {
	Path     string
	MimeType string
}

func (m *Launcher) Play(ctx context.Context, path string) error {
	m.mu.Lock()
	m.Played = append(m.Played, path)
	m.mu.Unlock()
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, path)
	}
	return nil
}

func (m *Launcher) Share(ctx context.Context, path, mimeType string) error {
	m.mu.Lock()
	m.Shared = append(m.Shared, SharedFile{Path: path, MimeType: mimeType})
	m.mu.Unlock()
	if m.ShareFunc != nil {
		return m.ShareFunc(ctx, path, mimeType)
	}
	return nil
}

var _ ports.Launcher = (*Launcher)(nil)
