package filesystem

import (
	"bytes"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Op names a MockFileSystem operation for failure injection.
type Op string

// Operations that can be made to fail with FailOn.
const (
	OpCreate Op = "create"
	OpList   Op = "list"
	OpMkdir  Op = "mkdir"
	OpOpen   Op = "open"
	OpStat   Op = "stat"
	OpWrite  Op = "write"
)

// MockFileSystem is an in-memory filesystem implementation for testing.
type MockFileSystem struct {
	mu       sync.RWMutex
	files    map[string]*mockFile
	failures map[failureKey]error
}

type failureKey struct {
	op   Op
	path string
}

// mockFile represents a file in the mock filesystem.
type mockFile struct {
	data    []byte
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

// mockFileInfo implements os.FileInfo for mock files.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.perm }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() any           { return nil }

// mockFileHandle implements the File interface for reading/writing.
type mockFileHandle struct {
	fs       *MockFileSystem
	path     string
	reader   *bytes.Reader
	writer   *bytes.Buffer
	writeErr error
	closed   bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.writeErr != nil {
		return 0, &iofs.PathError{Op: "write", Path: f.path, Err: f.writeErr}
	}
	if f.writer == nil {
		f.writer = &bytes.Buffer{}
	}
	return f.writer.Write(p)
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true

	// If we were writing, save the data
	if f.writer != nil {
		f.fs.mu.Lock()
		defer f.fs.mu.Unlock()

		if file, exists := f.fs.files[f.path]; exists {
			file.data = f.writer.Bytes()
		}
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	return f.fs.Stat(f.path)
}

// NewMockFileSystem creates a new in-memory filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:    make(map[string]*mockFile),
		failures: make(map[failureKey]error),
	}
}

// FailOn makes every subsequent op on path fail with err.
func (fs *MockFileSystem) FailOn(op Op, path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failures[failureKey{op: op, path: filepath.Clean(path)}] = err
}

// injected returns the injected failure for op on path, if any. Caller holds the lock.
func (fs *MockFileSystem) injected(op Op, path string) error {
	err, ok := fs.failures[failureKey{op: op, path: filepath.Clean(path)}]
	if !ok {
		return nil
	}

	return &iofs.PathError{Op: string(op), Path: path, Err: err}
}

// Chtimes changes the access and modification times of a file.
func (fs *MockFileSystem) Chtimes(path string, _, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[filepath.Clean(path)]
	if !exists {
		return &iofs.PathError{Op: "chtimes", Path: path, Err: iofs.ErrNotExist}
	}

	file.modTime = mtime
	return nil
}

// CreateNew creates a file for writing, failing if it already exists.
func (fs *MockFileSystem) CreateNew(path string) (File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path = filepath.Clean(path)

	if err := fs.injected(OpCreate, path); err != nil {
		return nil, err
	}

	if _, exists := fs.files[path]; exists {
		return nil, &iofs.PathError{Op: "create", Path: path, Err: iofs.ErrExist}
	}

	parent, exists := fs.files[filepath.Dir(path)]
	if filepath.Dir(path) != "." && filepath.Dir(path) != "/" && (!exists || !parent.isDir) {
		return nil, &iofs.PathError{Op: "create", Path: path, Err: iofs.ErrNotExist}
	}

	fs.files[path] = &mockFile{
		data:    []byte{},
		modTime: time.Now(),
		perm:    DefaultFilePermissions,
	}

	var writeErr error
	if err, ok := fs.failures[failureKey{op: OpWrite, path: path}]; ok {
		writeErr = err
	}

	return &mockFileHandle{
		fs:       fs,
		path:     path,
		writer:   &bytes.Buffer{},
		writeErr: writeErr,
	}, nil
}

// List returns an iterator over the immediate entries of a directory.
func (fs *MockFileSystem) List(path string) FileScanner {
	return &sliceScanner{
		index: -1,
		load: func() ([]FileInfo, error) {
			return fs.collect(path, false)
		},
	}
}

// MkdirAll creates a directory and all necessary parents.
func (fs *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.injected(OpMkdir, path); err != nil {
		return err
	}

	return fs.mkdirAllLocked(filepath.Clean(path), perm)
}

// mkdirAllLocked is the internal implementation that assumes the lock is held.
func (fs *MockFileSystem) mkdirAllLocked(path string, perm os.FileMode) error {
	if path == "." || path == "/" {
		return nil
	}

	// Create parent directories first
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := fs.mkdirAllLocked(dir, perm); err != nil {
			return err
		}
	}

	existing, exists := fs.files[path]
	if exists && !existing.isDir {
		return &iofs.PathError{Op: "mkdir", Path: path, Err: fmt.Errorf("not a directory")}
	}

	if !exists {
		fs.files[path] = &mockFile{
			modTime: time.Now(),
			isDir:   true,
			perm:    perm,
		}
	}

	return nil
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(path string) (File, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	path = filepath.Clean(path)

	if err := fs.injected(OpOpen, path); err != nil {
		return nil, err
	}

	file, exists := fs.files[path]
	if !exists {
		return nil, &iofs.PathError{Op: "open", Path: path, Err: iofs.ErrNotExist}
	}

	if file.isDir {
		return nil, &iofs.PathError{Op: "open", Path: path, Err: fmt.Errorf("is a directory")}
	}

	return &mockFileHandle{
		fs:     fs,
		path:   path,
		reader: bytes.NewReader(file.data),
	}, nil
}

// Remove removes a file or empty directory.
func (fs *MockFileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path = filepath.Clean(path)

	file, exists := fs.files[path]
	if !exists {
		return &iofs.PathError{Op: "remove", Path: path, Err: iofs.ErrNotExist}
	}

	// If it's a directory, check if it's empty
	if file.isDir {
		for p := range fs.files {
			if strings.HasPrefix(p, path+"/") {
				return &iofs.PathError{Op: "remove", Path: path, Err: fmt.Errorf("directory not empty")}
			}
		}
	}

	delete(fs.files, path)
	return nil
}

// Scan returns an iterator over all files in a directory tree.
func (fs *MockFileSystem) Scan(path string) FileScanner {
	return &sliceScanner{
		index: -1,
		load: func() ([]FileInfo, error) {
			return fs.collect(path, true)
		},
	}
}

// Stat returns file information.
func (fs *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	path = filepath.Clean(path)

	if err := fs.injected(OpStat, path); err != nil {
		return nil, err
	}

	file, exists := fs.files[path]
	if !exists {
		return nil, &iofs.PathError{Op: "stat", Path: path, Err: iofs.ErrNotExist}
	}

	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.data)),
		modTime: file.modTime,
		isDir:   file.isDir,
		perm:    file.perm,
	}, nil
}

// collect gathers entries under root, either immediate children or the whole tree.
func (fs *MockFileSystem) collect(root string, recursive bool) ([]FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	root = filepath.Clean(root)

	if err := fs.injected(OpList, root); err != nil {
		return nil, err
	}

	dir, exists := fs.files[root]
	if !exists {
		return nil, &iofs.PathError{Op: "list", Path: root, Err: iofs.ErrNotExist}
	}
	if !dir.isDir {
		return nil, &iofs.PathError{Op: "list", Path: root, Err: fmt.Errorf("not a directory")}
	}

	files := make([]FileInfo, 0)

	for path, file := range fs.files {
		if !strings.HasPrefix(path, root+"/") {
			continue
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}

		if !recursive && strings.Contains(relPath, "/") {
			continue
		}

		files = append(files, FileInfo{
			Name:         filepath.Base(path),
			RelativePath: relPath,
			Size:         int64(len(file.data)),
			ModTime:      file.modTime,
			IsDir:        file.isDir,
		})
	}

	// Sort by path so parents come before children
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})

	return files, nil
}

// Helper methods for testing

// AddFile adds a file to the mock filesystem with the given content and modtime.
func (fs *MockFileSystem) AddFile(path string, content []byte, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path = filepath.Clean(path)

	// Create parent directories if needed
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		_ = fs.mkdirAllLocked(dir, 0o755)
	}

	fs.files[path] = &mockFile{
		data:    append([]byte(nil), content...),
		modTime: modTime,
		perm:    DefaultFilePermissions,
	}
}

// AddDir adds a directory (and its parents) to the mock filesystem.
func (fs *MockFileSystem) AddDir(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(filepath.Clean(path), 0o755)
}

// GetFile retrieves a file's content from the mock filesystem.
func (fs *MockFileSystem) GetFile(path string) ([]byte, time.Time, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[filepath.Clean(path)]
	if !exists {
		return nil, time.Time{}, os.ErrNotExist
	}

	if file.isDir {
		return nil, time.Time{}, fmt.Errorf("is a directory")
	}

	return append([]byte(nil), file.data...), file.modTime, nil
}

// Exists checks if a path exists in the mock filesystem.
func (fs *MockFileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, exists := fs.files[filepath.Clean(path)]
	return exists
}

// ListFiles returns all file paths in the mock filesystem.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p, file := range fs.files {
		if !file.isDir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
