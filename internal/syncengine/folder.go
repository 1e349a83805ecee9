// Package syncengine copies new media files from source folders into a
// mirrored destination tree.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joe/media-mirror/internal/logging"
	"github.com/joe/media-mirror/pkg/fileops"
	"github.com/joe/media-mirror/pkg/filesystem"
)

// Exported constants.
const (
	// DefaultDelay is the pause between successive file copies
	DefaultDelay = 100 * time.Millisecond
)

// FolderSyncer copies the entries of one source folder that are missing,
// by name, from one destination folder. Existing destination entries are
// never compared or overwritten, so re-running on an unchanged pair copies nothing.
type FolderSyncer struct {
	FileOps      *fileops.FileOps // Source and destination filesystems
	Delay        time.Duration    // Pause between successive copies (0 = none)
	Filter       FileFilter       // Optional; excluded entries count as processed
	TimeProvider TimeProvider
	Logger       logging.Logger
}

// FolderPlan is the listing of one source folder, ready to apply.
type FolderPlan struct {
	Source  string
	Entries []filesystem.FileInfo
}

// Total returns the number of entries progress is reported against.
func (p *FolderPlan) Total() int {
	return len(p.Entries)
}

// NewFolderSyncer creates a FolderSyncer with the default delay and a real clock.
func NewFolderSyncer(fo *fileops.FileOps) *FolderSyncer {
	return &FolderSyncer{
		FileOps:      fo,
		Delay:        DefaultDelay,
		TimeProvider: &RealTimeProvider{},
		Logger:       logging.Nop(),
	}
}

// WithFilter returns a copy of s that uses filter.
func (s *FolderSyncer) WithFilter(filter FileFilter) *FolderSyncer {
	clone := *s
	clone.Filter = filter

	return &clone
}

// SyncFolder copies every non-hidden entry of source that destination lacks.
// onProgress receives the running count of processed entries against the
// folder total. It returns the number of entries actually copied; on error
// that count covers the copies made before the failure.
func (s *FolderSyncer) SyncFolder(
	ctx context.Context,
	source, destination string,
	onProgress func(SyncStats),
) (int, error) {
	plan, err := s.Scan(source)
	if err != nil {
		return 0, err
	}

	return s.Apply(ctx, plan, destination, onProgress)
}

// Scan lists the immediate entries of source.
func (s *FolderSyncer) Scan(source string) (*FolderPlan, error) {
	entries, err := filesystem.Collect(s.FileOps.SourceFS.List(source))
	if err != nil {
		return nil, &ListError{Path: source, Err: err}
	}

	return &FolderPlan{Source: source, Entries: entries}, nil
}

// Apply creates destination and copies the plan's missing entries into it.
// Directories are copied whole. The first failed copy stops the folder;
// files copied before it stay in place.
func (s *FolderSyncer) Apply(
	ctx context.Context,
	plan *FolderPlan,
	destination string,
	onProgress func(SyncStats),
) (int, error) {
	logger := logging.OrNop(s.Logger).With("source", plan.Source, "destination", destination)

	err := s.FileOps.DestFS.MkdirAll(destination, fileops.DefaultDirPermissions)
	if err != nil {
		return 0, &DirectoryCreateError{Path: destination, Err: err}
	}

	stats := SyncStats{TotalFiles: plan.Total()}
	report := func() {
		if onProgress != nil {
			onProgress(stats)
		}
	}

	report()

	copied := 0

	for _, entry := range plan.Entries {
		if !s.wanted(entry) {
			logger.Debug("skipping excluded entry", "name", entry.Name)
			stats.FilesCopied++
			report()

			continue
		}

		dstPath := filepath.Join(destination, entry.Name)

		present, err := s.exists(dstPath)
		if err != nil {
			return copied, &CopyError{FileName: entry.Name, Err: err}
		}

		if present {
			logger.Debug("already synced", "name", entry.Name)
			stats.FilesCopied++
			report()

			continue
		}

		err = s.pace(ctx, copied)
		if err != nil {
			return copied, err
		}

		err = s.copyEntry(plan.Source, dstPath, entry)
		if err != nil {
			logger.Warn("copy failed", "name", entry.Name, "error", err)
			return copied, &CopyError{FileName: entry.Name, Err: err}
		}

		logger.Debug("copied", "name", entry.Name, "size", humanize.Bytes(uint64(max(entry.Size, 0))))

		copied++
		stats.FilesCopied++
		report()
	}

	logger.Info("folder synced", "copied", copied, "total", stats.TotalFiles)

	return copied, nil
}

func (s *FolderSyncer) withLogger(logger logging.Logger) *FolderSyncer {
	clone := *s
	clone.Logger = logger

	return &clone
}

func (s *FolderSyncer) wanted(entry filesystem.FileInfo) bool {
	if isHidden(entry.Name) {
		return false
	}

	return s.Filter == nil || s.Filter.ShouldInclude(entry.Name)
}

// exists reports whether path is taken at the destination.
func (s *FolderSyncer) exists(path string) (bool, error) {
	_, err := s.FileOps.DestFS.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("failed to check destination: %w", err)
}

// pace waits between successive copies and stops the folder once ctx is done.
func (s *FolderSyncer) pace(ctx context.Context, copiedSoFar int) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrSyncCancelled, ctx.Err())
	}

	if copiedSoFar == 0 || s.Delay <= 0 {
		return nil
	}

	var clock TimeProvider = &RealTimeProvider{}
	if s.TimeProvider != nil {
		clock = s.TimeProvider
	}

	err := clock.Sleep(ctx, s.Delay)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyncCancelled, err)
	}

	return nil
}

func (s *FolderSyncer) copyEntry(sourceDir, dstPath string, entry filesystem.FileInfo) error {
	srcPath := filepath.Join(sourceDir, entry.Name)

	if entry.IsDir {
		_, err := s.FileOps.CopyTree(srcPath, dstPath, nil)
		return err //nolint:wrapcheck // Wrapped by CopyError at the call site
	}

	_, err := s.FileOps.CopyFile(srcPath, dstPath, nil)

	return err //nolint:wrapcheck // Wrapped by CopyError at the call site
}
