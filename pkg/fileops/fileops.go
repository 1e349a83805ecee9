// Package fileops provides whole-file and whole-tree copy operations over an
// injectable filesystem.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/joe/media-mirror/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy operations (32KB)
	BufferSize = 32 * 1024
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o750
)

// CopyStats contains timing information about a copy operation
type CopyStats struct {
	BytesCopied int64
	FilesCopied int
	ReadTime    time.Duration
	WriteTime   time.Duration
}

func (s *CopyStats) add(other *CopyStats) {
	s.BytesCopied += other.BytesCopied
	s.FilesCopied += other.FilesCopied
	s.ReadTime += other.ReadTime
	s.WriteTime += other.WriteTime
}

// ProgressCallback is called during file operations to report progress
type ProgressCallback func(bytesTransferred int64, totalBytes int64, currentFile string)

// FileOps provides file operations with dependency injection for filesystem access.
// This allows for testing without actual filesystem I/O.
type FileOps struct {
	SourceFS filesystem.FileSystem // Source filesystem for copy operations
	DestFS   filesystem.FileSystem // Destination filesystem for copy operations
}

// NewFileOps creates a new FileOps instance using one filesystem for both sides.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{SourceFS: fs, DestFS: fs}
}

// NewDualFileOps creates a new FileOps instance with separate source and destination filesystems.
func NewDualFileOps(sourceFS, destFS filesystem.FileSystem) *FileOps {
	return &FileOps{
		SourceFS: sourceFS,
		DestFS:   destFS,
	}
}

// NewRealFileOps creates a new FileOps instance using the real filesystem.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// CopyFile copies src to dst byte-for-byte and preserves the modification time.
// dst must not exist; an existing file is never overwritten. On failure the
// partially written destination file is removed.
func (fo *FileOps) CopyFile(src, dst string, progress ProgressCallback) (*CopyStats, error) {
	stats := &CopyStats{}

	sourceFile, err := fo.SourceFS.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	// Get source file info
	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return stats, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	// Create destination directory if it doesn't exist
	dstDir := filepath.Dir(dst)

	err = fo.DestFS.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	destFile, err := fo.DestFS.CreateNew(dst)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	// Track whether copy completed successfully
	copyCompleted := false

	defer func() {
		_ = destFile.Close()
		// If copy failed, delete the partial file
		if !copyCompleted {
			_ = fo.DestFS.Remove(dst)
		}
	}()

	written, err := copyLoop(sourceFile, destFile, stats, sourceInfo.Size(), src, progress)
	if err != nil {
		return stats, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	stats.BytesCopied = written

	// Close the file before setting modification time
	// This is important for network filesystems like SMB
	err = destFile.Close()
	if err != nil {
		return stats, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	// Preserve modification time
	err = fo.DestFS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return stats, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	copyCompleted = true
	stats.FilesCopied = 1

	return stats, nil
}

// CopyTree copies the directory src to dst recursively. dst must not exist.
// The tree is copied as one unit: on failure everything created under dst is
// removed again so the next run sees dst as missing and retries it.
func (fo *FileOps) CopyTree(src, dst string, progress ProgressCallback) (*CopyStats, error) {
	stats := &CopyStats{}

	_, err := fo.DestFS.Stat(dst)
	if err == nil {
		return stats, fmt.Errorf("failed to copy %s: destination %s already exists", src, dst) //nolint:err113 // Includes both paths
	}

	entries, err := filesystem.Collect(fo.SourceFS.Scan(src))
	if err != nil {
		return stats, fmt.Errorf("failed to scan source directory %s: %w", src, err)
	}

	// Everything created so far, in creation order
	created := []string{dst}

	err = fo.DestFS.MkdirAll(dst, DefaultDirPermissions)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination directory %s: %w", dst, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.RelativePath)
		dstPath := filepath.Join(dst, entry.RelativePath)

		if entry.IsDir {
			err = fo.DestFS.MkdirAll(dstPath, DefaultDirPermissions)
			if err != nil {
				fo.removeAll(created)
				return stats, fmt.Errorf("failed to create destination directory %s: %w", dstPath, err)
			}

			created = append(created, dstPath)

			continue
		}

		fileStats, err := fo.CopyFile(srcPath, dstPath, progress)
		if err != nil {
			fo.removeAll(created)
			return stats, err
		}

		created = append(created, dstPath)
		stats.add(fileStats)
	}

	return stats, nil
}

// removeAll removes paths in reverse creation order so children go before parents.
func (fo *FileOps) removeAll(paths []string) {
	for i := len(paths) - 1; i >= 0; i-- {
		_ = fo.DestFS.Remove(paths[i])
	}
}

// copyLoop performs the actual file copy with progress tracking and timing.
//
//nolint:lll // Long function signature with many parameters
func copyLoop(sourceFile io.Reader, destFile io.Writer, stats *CopyStats, sourceSize int64, srcPath string, progress ProgressCallback) (int64, error) {
	var written int64

	buf := make([]byte, BufferSize)

	var (
		nr, nw int //nolint:varnamelen // nr/nw are idiomatic for bytes read/written
		err    error
	)

	for {
		// Time the read operation
		readStart := time.Now()
		nr, err = sourceFile.Read(buf)
		stats.ReadTime += time.Since(readStart)

		if nr > 0 {
			// Time the write operation
			writeStart := time.Now()
			var writeErr error
			nw, writeErr = destFile.Write(buf[0:nr])
			stats.WriteTime += time.Since(writeStart)

			if writeErr != nil {
				return written, fmt.Errorf("failed to write to destination: %w", writeErr)
			}

			if nr != nw {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)

			if progress != nil {
				progress(written, sourceSize, srcPath)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return written, fmt.Errorf("failed to read from source: %w", err)
		}
	}

	return written, nil
}
