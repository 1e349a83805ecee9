// Package trigger decides when sync runs happen: on demand, on a schedule,
// or after source folders change. Every finished run is recorded in history.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joe/media-mirror/internal/history"
	"github.com/joe/media-mirror/internal/logging"
	"github.com/joe/media-mirror/internal/syncengine"
)

// Runner runs the configured pairs and records each outcome.
type Runner struct {
	Orchestrator *syncengine.Orchestrator
	Store        history.Store
	Pairs        []syncengine.FolderPair
	TimeProvider syncengine.TimeProvider
	Logger       logging.Logger
	// OnResult, if set, receives every recorded run from Every and Watch.
	OnResult func(record history.Record, err error)
}

// Run performs one sync pass and appends its record to the store, whether
// the pass succeeded or not. If a pass is already running it returns
// syncengine.ErrRunInProgress and records nothing.
func (r *Runner) Run(ctx context.Context, onProgress func(syncengine.SyncStats)) (history.Record, error) {
	logger := logging.OrNop(r.Logger)

	copied, runErr := r.Orchestrator.RunSync(ctx, r.Pairs, onProgress)
	if errors.Is(runErr, syncengine.ErrRunInProgress) {
		logger.Info("sync already running; trigger ignored")
		return history.Record{}, runErr
	}

	record := history.NewRecordFromRun(r.now(), copied, runErr)

	// A cancelled run is still recorded.
	appendErr := r.Store.Append(context.WithoutCancel(ctx), record)
	if appendErr != nil {
		logger.Error("failed to record sync run", "id", record.ID, "error", appendErr)
		return record, errors.Join(runErr, fmt.Errorf("failed to record run: %w", appendErr))
	}

	logger.Info("sync run recorded",
		"id", record.ID, "files", record.FilesTransferred, "success", record.Success)

	return record, runErr
}

// Every runs a pass immediately and then once per interval until ctx ends.
// Ticks that arrive while a pass is running are dropped by the ticker.
func (r *Runner) Every(ctx context.Context, interval time.Duration, onProgress func(syncengine.SyncStats)) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval) //nolint:err113 // Includes the value
	}

	ticker := r.clock().NewTicker(interval)
	defer ticker.Stop()

	logging.OrNop(r.Logger).Info("scheduled sync", "interval", interval)

	r.runAndReport(ctx, onProgress)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticker.C():
			if !ok {
				return nil
			}

			r.runAndReport(ctx, onProgress)
		}
	}
}

// Watch runs a pass immediately and again whenever one of dirs changes.
// Changes are debounced: a pass starts once dirs have been quiet for debounce.
// Hidden entries (such as .DS_Store) do not trigger a pass.
func (r *Runner) Watch(ctx context.Context, dirs []string, debounce time.Duration, onProgress func(syncengine.SyncStats)) error {
	logger := logging.OrNop(r.Logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	for _, dir := range dirs {
		err = watcher.Add(dir)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	logger.Info("watching source folders", "dirs", dirs, "debounce", debounce)

	r.runAndReport(ctx, onProgress)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if isIgnored(event) {
				continue
			}

			logger.Debug("source changed", "path", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}

			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil

			r.runAndReport(ctx, onProgress)
		}
	}
}

func (r *Runner) runAndReport(ctx context.Context, onProgress func(syncengine.SyncStats)) {
	record, err := r.Run(ctx, onProgress)
	if errors.Is(err, syncengine.ErrRunInProgress) {
		return
	}

	if err != nil {
		logging.OrNop(r.Logger).Warn("sync run failed", "error", err)
	}

	if r.OnResult != nil {
		r.OnResult(record, err)
	}
}

func (r *Runner) clock() syncengine.TimeProvider {
	if r.TimeProvider != nil {
		return r.TimeProvider
	}

	return &syncengine.RealTimeProvider{}
}

func (r *Runner) now() time.Time {
	return r.clock().Now()
}

// isIgnored reports whether event concerns a hidden entry or only metadata.
func isIgnored(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return true
	}

	return event.Op == fsnotify.Chmod
}
