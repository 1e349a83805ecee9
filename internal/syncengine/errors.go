package syncengine

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"strings"
)

// Exported variables.
var (
	ErrAccessDenied     = errors.New("access denied")
	ErrNoPairs          = errors.New("no folder pairs configured")
	ErrOverlappingPairs = errors.New("folder pairs overlap")
	ErrRunInProgress    = errors.New("a sync run is already in progress")
	ErrSyncCancelled    = errors.New("sync cancelled")
)

// DirectoryCreateError reports a destination directory that could not be created.
type DirectoryCreateError struct {
	Path string
	Err  error
}

func (e *DirectoryCreateError) Error() string {
	return fmt.Sprintf("failed to create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreateError) Unwrap() error { return e.Err }

// ListError reports a source directory that could not be listed.
type ListError struct {
	Path string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list %s: %v", e.Path, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// CopyError reports the entry whose copy stopped a folder sync.
type CopyError struct {
	FileName string
	Err      error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to copy %s: %v", e.FileName, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// AggregateError reports a multi-pair run in which at least one pair failed.
// Copied counts every file copied during the run, by any pair.
type AggregateError struct {
	First  error
	Copied int
	Failed []string
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("sync failed for %s (%d files copied): %v",
		strings.Join(e.Failed, ", "), e.Copied, e.First)
}

func (e *AggregateError) Unwrap() error { return e.First }

// NeedsReauthorization reports whether err means access to a folder was
// refused, so the user should re-grant access and retry.
func NeedsReauthorization(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, iofs.ErrPermission)
}
