// Package filesystem provides an abstraction layer for filesystem operations
// to enable dependency injection and testing without actual filesystem I/O.
package filesystem

import (
	"fmt"
	"io"
	"os"
	"time"
)

// File is an interface that abstracts file operations.
// This allows us to work with both real files and mock files.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystem is an interface that abstracts filesystem operations.
// This allows for dependency injection and testing with mock implementations.
type FileSystem interface {
	// List returns an iterator over the immediate entries of a directory,
	// sorted by name. It does not descend into subdirectories.
	List(path string) FileScanner

	// Scan returns an iterator over all entries in a directory tree.
	// Parents are always yielded before their children.
	Scan(path string) FileScanner

	// Open opens a file for reading.
	Open(path string) (File, error)
	// CreateNew creates a file for writing. It fails with fs.ErrExist
	// if the path is already taken, so an existing file is never truncated.
	CreateNew(path string) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	Chtimes(path string, atime, mtime time.Time) error
	Remove(path string) error
	Stat(path string) (os.FileInfo, error)
}

// Exported constants.
const (
	// DefaultFilePermissions is the permission mode for files created by CreateNew
	DefaultFilePermissions = 0o644
)

// RealFileSystem implements FileSystem using actual os/filepath functions.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Chtimes changes the access and modification times of a file.
func (fs *RealFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	err := os.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for %s: %w", path, err)
	}

	return nil
}

// CreateNew creates a file for writing, failing if it already exists.
func (fs *RealFileSystem) CreateNew(path string) (File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultFilePermissions) // #nosec G304 - file path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// List returns an iterator over the immediate entries of a directory.
func (fs *RealFileSystem) List(path string) FileScanner {
	return newRealDirLister(path)
}

// MkdirAll creates a directory and all necessary parents.
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	err := os.MkdirAll(path, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path) // #nosec G304 - file path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// Remove removes a file or empty directory.
func (fs *RealFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Scan returns an iterator over all files in a directory tree.
func (fs *RealFileSystem) Scan(path string) FileScanner {
	return newRealFileScanner(path)
}

// Stat returns file information.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}
