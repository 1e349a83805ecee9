package syncengine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/joe/media-mirror/internal/logging"
	"github.com/joe/media-mirror/pkg/fileops"
)

// Orchestrator runs every FolderPair concurrently and reports one combined result.
// A failing pair never stops its siblings. Only one run may be active at a time.
type Orchestrator struct {
	Syncer          *FolderSyncer
	Resolver        PathResolver // Optional; nil uses each pair's Source as given
	DestinationRoot string
	Emitter         EventEmitter // Optional
	Logger          logging.Logger

	state atomic.Int32
}

// NewOrchestrator creates an Orchestrator writing under destinationRoot.
func NewOrchestrator(syncer *FolderSyncer, resolver PathResolver, destinationRoot string) *Orchestrator {
	return &Orchestrator{
		Syncer:          syncer,
		Resolver:        resolver,
		DestinationRoot: destinationRoot,
		Logger:          logging.Nop(),
	}
}

// State returns the state of the current or most recent run.
func (o *Orchestrator) State() RunState {
	return RunState(o.state.Load())
}

// RunSync syncs every pair into its subfolder of the destination root.
//
// onProgress is called with the combined stats across all pairs, first with
// nothing processed and then after every per-pair update. Calls never
// overlap; FilesCopied never decreases and TotalFiles stays fixed for the run.
//
// It returns the number of files copied. If any pair fails the others still
// finish, and the error is an *AggregateError carrying the first failure.
// A second call while a run is active returns ErrRunInProgress.
func (o *Orchestrator) RunSync(ctx context.Context, pairs []FolderPair, onProgress func(SyncStats)) (int, error) {
	if !o.begin() {
		return 0, ErrRunInProgress
	}

	copied, err := o.run(ctx, pairs, onProgress)

	if err != nil {
		o.state.Store(int32(StateFailed))
	} else {
		o.state.Store(int32(StateCompleted))
	}

	return copied, err
}

// begin moves the state to Running unless a run is already active.
func (o *Orchestrator) begin() bool {
	for {
		current := o.state.Load()
		if RunState(current) == StateRunning {
			return false
		}

		if o.state.CompareAndSwap(current, int32(StateRunning)) {
			return true
		}
	}
}

// pairRun is the per-pair working state of one run.
type pairRun struct {
	pair        FolderPair
	destination string
	syncer      *FolderSyncer
	plan        *FolderPlan
	copied      int
	err         error
}

func (o *Orchestrator) run(ctx context.Context, pairs []FolderPair, onProgress func(SyncStats)) (int, error) {
	logger := logging.OrNop(o.Logger)

	if ctx.Err() != nil {
		return 0, fmt.Errorf("%w: %w", ErrSyncCancelled, ctx.Err())
	}

	err := ValidatePairs(pairs)
	if err != nil {
		return 0, err
	}

	err = o.Syncer.FileOps.DestFS.MkdirAll(o.DestinationRoot, fileops.DefaultDirPermissions)
	if err != nil {
		return 0, &DirectoryCreateError{Path: o.DestinationRoot, Err: err}
	}

	names := make([]string, len(pairs))
	runs := make([]*pairRun, len(pairs))

	for i, pair := range pairs {
		names[i] = pair.Label()
		runs[i] = &pairRun{
			pair:        pair,
			destination: filepath.Join(o.DestinationRoot, pair.DestinationSubpath),
		}
	}

	logger.Info("sync started", "pairs", names, "destination", o.DestinationRoot)
	o.emit(RunStarted{Pairs: names})

	failures := &failureLog{}

	// Scan every pair first so the combined total is known before copying starts.
	var scans errgroup.Group

	for _, pr := range runs {
		scans.Go(func() error {
			pr.plan, pr.err = o.scanPair(pr)
			if pr.err != nil {
				failures.record(pr.pair.Label(), pr.err)
				return nil
			}

			o.emit(PairScanned{Pair: pr.pair.Label(), Total: pr.plan.Total()})

			return nil
		})
	}

	_ = scans.Wait()

	aggregate := newProgressAggregator(runs, onProgress, o.emit)
	aggregate.start()

	var applies errgroup.Group

	for i, pr := range runs {
		if pr.err != nil {
			continue
		}

		applies.Go(func() error {
			pr.copied, pr.err = pr.syncer.Apply(ctx, pr.plan, pr.destination, func(stats SyncStats) {
				aggregate.update(i, stats)
			})
			if pr.err != nil {
				failures.record(pr.pair.Label(), pr.err)
			}

			return pr.err
		})
	}

	// Every pair's error is already in failures; Wait only joins.
	_ = applies.Wait()

	total := 0

	for _, pr := range runs {
		total += pr.copied

		if pr.err != nil {
			logger.Warn("pair failed", "pair", pr.pair.Label(), "copied", pr.copied, "error", pr.err)
		}

		o.emit(PairFinished{Pair: pr.pair.Label(), Copied: pr.copied, Err: pr.err})
	}

	var runErr error
	if failed, first := failures.snapshot(); first != nil {
		runErr = &AggregateError{First: first, Copied: total, Failed: failed}
	}

	logger.Info("sync finished", "copied", total, "error", runErr)
	o.emit(RunFinished{Copied: total, Err: runErr})

	return total, runErr
}

func (o *Orchestrator) scanPair(pr *pairRun) (*FolderPlan, error) {
	source := pr.pair.Source

	if o.Resolver != nil {
		resolved, err := o.Resolver.Resolve(pr.pair.Source)
		if err != nil {
			return nil, err //nolint:wrapcheck // Resolver errors already name the folder
		}

		source = resolved
	}

	if isWithin(source, pr.destination) || isWithin(pr.destination, source) {
		return nil, fmt.Errorf("%w: %s source %s and destination %s",
			ErrOverlappingPairs, pr.pair.Label(), source, pr.destination)
	}

	pr.syncer = o.Syncer
	if o.Logger != nil {
		pr.syncer = pr.syncer.withLogger(o.Logger.With("pair", pr.pair.Label()))
	}

	if pr.pair.Pattern != "" {
		filter, err := NewGlobFilter(pr.pair.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", pr.pair.Label(), err)
		}

		pr.syncer = pr.syncer.WithFilter(filter)
	}

	return pr.syncer.Scan(source)
}

func (o *Orchestrator) emit(event Event) {
	if o.Emitter != nil {
		o.Emitter.Emit(event)
	}
}

// progressAggregator funnels per-pair updates through one mutex so the
// combined stats are recomputed and delivered by a single consumer at a time.
type progressAggregator struct {
	mu         sync.Mutex
	names      []string
	slots      []SyncStats
	onProgress func(SyncStats)
	emit       func(Event)
}

func newProgressAggregator(runs []*pairRun, onProgress func(SyncStats), emit func(Event)) *progressAggregator {
	agg := &progressAggregator{
		names:      make([]string, len(runs)),
		slots:      make([]SyncStats, len(runs)),
		onProgress: onProgress,
		emit:       emit,
	}

	for i, pr := range runs {
		agg.names[i] = pr.pair.Label()
		if pr.plan != nil {
			agg.slots[i] = SyncStats{TotalFiles: pr.plan.Total()}
		}
	}

	return agg
}

// start reports the combined total before any pair has processed anything.
func (a *progressAggregator) start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.deliver()
}

func (a *progressAggregator) update(index int, stats SyncStats) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.slots[index] = stats
	a.emit(PairProgress{Pair: a.names[index], Stats: stats})
	a.deliver()
}

// deliver sends the combined stats. Caller holds the lock.
func (a *progressAggregator) deliver() {
	combined := SyncStats{}
	for _, slot := range a.slots {
		combined.FilesCopied += slot.FilesCopied
		combined.TotalFiles += slot.TotalFiles
	}

	a.emit(Progress{Stats: combined})

	if a.onProgress != nil {
		a.onProgress(combined)
	}
}

// failureLog keeps pair failures in the order they were observed.
type failureLog struct {
	mu     sync.Mutex
	first  error
	failed []string
}

func (f *failureLog) record(pair string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.first == nil {
		f.first = err
	}

	f.failed = append(f.failed, pair)
}

func (f *failureLog) snapshot() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.failed...), f.first
}
