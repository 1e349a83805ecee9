package filesystem

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
)

// sliceScanner iterates over a slice of entries loaded on the first call to Next.
type sliceScanner struct {
	load    func() ([]FileInfo, error)
	files   []FileInfo
	index   int
	err     error
	scanned bool
}

// Next advances to the next file and returns its info.
func (s *sliceScanner) Next() (FileInfo, bool) {
	// Load on first call
	if !s.scanned {
		s.files, s.err = s.load()
		s.scanned = true
	}

	// Check if we have an error
	if s.err != nil {
		return FileInfo{}, false
	}

	// Advance to next file
	s.index++
	if s.index >= len(s.files) {
		return FileInfo{}, false
	}

	return s.files[s.index], true
}

// Err returns any error that occurred during scanning.
func (s *sliceScanner) Err() error {
	return s.err
}

// newRealDirLister creates a scanner over the immediate entries of root.
func newRealDirLister(root string) *sliceScanner {
	return &sliceScanner{
		index: -1,
		load: func() ([]FileInfo, error) {
			// os.ReadDir returns entries sorted by filename
			dirEntries, err := os.ReadDir(root)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", root, err)
			}

			files := make([]FileInfo, 0, len(dirEntries))

			for _, entry := range dirEntries {
				info, ok, err := entryInfo(root, entry)
				if err != nil {
					return nil, err
				}

				if !ok {
					continue
				}

				files = append(files, FileInfo{
					Name:         entry.Name(),
					RelativePath: entry.Name(),
					Size:         info.Size(),
					ModTime:      info.ModTime(),
					IsDir:        info.IsDir(),
				})
			}

			return files, nil
		},
	}
}

// newRealFileScanner creates a recursive scanner for the given directory.
func newRealFileScanner(root string) *sliceScanner {
	return &sliceScanner{
		index: -1,
		load: func() ([]FileInfo, error) {
			files := make([]FileInfo, 0)

			err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				// Get relative path
				relPath, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}

				// Skip the root directory itself
				if relPath == "." {
					return nil
				}

				files = append(files, FileInfo{
					Name:         info.Name(),
					RelativePath: relPath,
					Size:         info.Size(),
					ModTime:      info.ModTime(),
					IsDir:        info.IsDir(),
				})

				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", root, err)
			}

			return files, nil
		},
	}
}

// entryInfo returns the metadata of one listed entry. Symlinks are followed
// so a linked file or folder is copied as its target; a dangling link falls
// back to the link itself. ok is false when the entry vanished after listing.
func entryInfo(root string, entry iofs.DirEntry) (iofs.FileInfo, bool, error) {
	path := filepath.Join(root, entry.Name())

	if entry.Type()&iofs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err == nil {
			return info, true, nil
		}

		if !errors.Is(err, iofs.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	info, err := entry.Info()
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, true, nil
}
