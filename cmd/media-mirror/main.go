// Package main is the entry point for the media-mirror application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/media-mirror/internal/config"
	"github.com/joe/media-mirror/internal/history"
	"github.com/joe/media-mirror/internal/logging"
	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/internal/trigger"
	"github.com/joe/media-mirror/internal/tui"
	"github.com/joe/media-mirror/internal/tui/shared"
	"github.com/joe/media-mirror/pkg/fileops"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, cfg)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	interactive := !cfg.Plain && cfg.Mode() != config.ModeShowHistory && term.IsTerminal(int(os.Stdout.Fd()))

	logger, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		return err
	}

	defer closeLog()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := store.Close()
		if closeErr != nil {
			logger.Error("failed to close history store", "error", closeErr)
		}
	}()

	reporter := tui.NewPlainReporter(os.Stdout)

	if cfg.Mode() == config.ModeShowHistory {
		records, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		reporter.History(records)

		return nil
	}

	resolver := syncengine.NewRootResolver(cfg.SourceRoot)

	syncer := syncengine.NewFolderSyncer(fileops.NewRealFileOps())
	syncer.Delay = cfg.Delay
	syncer.Logger = logger

	orchestrator := syncengine.NewOrchestrator(syncer, resolver, cfg.DestRoot)
	orchestrator.Logger = logger

	runner := &trigger.Runner{
		Orchestrator: orchestrator,
		Store:        store,
		Pairs:        cfg.FolderPairs(),
		Logger:       logger,
	}

	if !interactive {
		orchestrator.Emitter = reporter
		return runMode(ctx, cfg, runner, resolver, reporter.Result)
	}

	bridge := shared.NewEventBridge()
	orchestrator.Emitter = bridge

	return tui.Run(ctx, cfg.DestRoot, bridge, func(ctx context.Context, notify func(tea.Msg)) error {
		return runMode(ctx, cfg, runner, resolver, func(record history.Record, err error) {
			notify(shared.RunResultMsg{Record: record, Err: err})
		})
	})
}

// runMode runs the trigger cfg selects and passes every recorded run to report.
func runMode(
	ctx context.Context,
	cfg *config.Config,
	runner *trigger.Runner,
	resolver syncengine.PathResolver,
	report func(history.Record, error),
) error {
	runner.OnResult = report

	switch cfg.Mode() {
	case config.ModeEvery:
		return runner.Every(ctx, cfg.Every, nil) //nolint:wrapcheck // Trigger errors are already descriptive
	case config.ModeWatch:
		dirs, err := watchDirs(resolver, runner.Pairs)
		if err != nil {
			return err
		}

		return runner.Watch(ctx, dirs, cfg.Debounce, nil) //nolint:wrapcheck // Trigger errors are already descriptive
	case config.ModeOnce, config.ModeShowHistory:
	}

	record, err := runner.Run(ctx, nil)
	if errors.Is(err, syncengine.ErrRunInProgress) {
		return err //nolint:wrapcheck // Sentinel is the message
	}

	report(record, err)

	return err
}

// watchDirs resolves the source folder of every pair.
func watchDirs(resolver syncengine.PathResolver, pairs []syncengine.FolderPair) ([]string, error) {
	dirs := make([]string, 0, len(pairs))

	for _, pair := range pairs {
		dir, err := resolver.Resolve(pair.Source)
		if err != nil {
			return nil, err //nolint:wrapcheck // Resolver errors already name the folder
		}

		dirs = append(dirs, dir)
	}

	return dirs, nil
}

// newLogger builds the logger for cfg. Without --log-file, logs go to stderr
// unless the terminal UI owns the screen.
func newLogger(cfg *config.Config, interactive bool) (logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)

	switch {
	case cfg.LogFile != "":
		file, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}

		out = file
		closeFn = func() { _ = file.Close() }
	case interactive:
		return logging.Nop(), closeFn, nil
	}

	logger, err := logging.New(out, cfg.LogFormat, level)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return logger, closeFn, nil
}

// openStore opens the persistent history, or an in-memory one with --no-history.
func openStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	if cfg.NoHistory {
		return history.NewMemoryStore(), nil
	}

	store, err := history.OpenSQLite(ctx, cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return store, nil
}
