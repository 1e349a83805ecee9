package syncengine

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/joe/media-mirror/pkg/filesystem"
)

// PathResolver turns a logical folder name into a usable absolute path.
// A refusal is reported with an error wrapping ErrAccessDenied; a folder
// that does not exist is reported as a *ListError.
type PathResolver interface {
	Resolve(logicalFolder string) (string, error)
}

// PathResolverFunc adapts a function to PathResolver.
type PathResolverFunc func(logicalFolder string) (string, error)

// Resolve calls f.
func (f PathResolverFunc) Resolve(logicalFolder string) (string, error) {
	return f(logicalFolder)
}

// RootResolver resolves logical folders relative to a source root directory.
// Absolute logical folders are used as they are.
type RootResolver struct {
	Root string
	FS   filesystem.FileSystem
}

// NewRootResolver creates a RootResolver on the real filesystem.
func NewRootResolver(root string) *RootResolver {
	return &RootResolver{Root: root, FS: filesystem.NewRealFileSystem()}
}

// Resolve returns the folder's path after checking that it is a reachable directory.
func (r *RootResolver) Resolve(logicalFolder string) (string, error) {
	path := logicalFolder
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Root, logicalFolder)
	}

	info, err := r.FS.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrPermission) {
			return "", fmt.Errorf("%w: %s: %w", ErrAccessDenied, logicalFolder, err)
		}

		if errors.Is(err, iofs.ErrNotExist) {
			return "", &ListError{Path: path, Err: err}
		}

		return "", fmt.Errorf("failed to resolve %s: %w", logicalFolder, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("failed to resolve %s: %s is not a directory", logicalFolder, path) //nolint:err113 // Includes the path
	}

	return path, nil
}
