package ports

import "context"

// PathResolver supplies a writable target path for a desired file name.
type PathResolver interface {
	Resolve(name string) (string, error)
}

// PermissionGate asks for permission to write into a directory.
type PermissionGate interface {
	// Request returns false when the permission was denied.
	Request(ctx context.Context, dir string) (bool, error)
}

// Launcher hands a produced file to the platform.
type Launcher interface {
	// Play opens the video with the system player.
	Play(ctx context.Context, path string) error

	// Share passes the file and its MIME type to the platform sharing mechanism.
	Share(ctx context.Context, path, mimeType string) error
}
