package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/joe/media-mirror/internal/history"
	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/internal/tui/shared"
)

// Exported constants.
const (
	// DefaultPlainInterval is the minimum gap between two progress lines
	DefaultPlainInterval = time.Second
)

// PlainReporter writes one line per engine event to a non-interactive
// output. Progress lines are throttled; every other event is always written.
type PlainReporter struct {
	Out      io.Writer
	Interval time.Duration
	Now      func() time.Time

	mu        sync.Mutex
	lastWrite time.Time
}

// NewPlainReporter creates a PlainReporter writing to out.
func NewPlainReporter(out io.Writer) *PlainReporter {
	return &PlainReporter{Out: out, Interval: DefaultPlainInterval, Now: time.Now}
}

// Emit implements syncengine.EventEmitter.
func (r *PlainReporter) Emit(event syncengine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event := event.(type) {
	case syncengine.RunStarted:
		r.printf("sync started: %d pairs\n", len(event.Pairs))
	case syncengine.PairScanned:
		r.printf("  %s: %d entries\n", event.Pair, event.Total)
	case syncengine.Progress:
		now := r.Now()
		if !r.lastWrite.IsZero() && now.Sub(r.lastWrite) < r.Interval && !event.Stats.Done() {
			return
		}

		r.lastWrite = now
		r.printf("  progress: %s (%d%%)\n", shared.FormatCount(event.Stats),
			int(shared.Fraction(event.Stats)*shared.ProgressPercentageScale))
	case syncengine.PairFinished:
		if event.Err != nil {
			r.printf("  %s: failed after %d copied: %v\n", event.Pair, event.Copied, event.Err)
		} else {
			r.printf("  %s: done, %d copied\n", event.Pair, event.Copied)
		}
	case syncengine.RunFinished:
		r.lastWrite = time.Time{}
	}
}

// Result writes the outcome of a recorded run.
func (r *PlainReporter) Result(record history.Record, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("%s", RenderSummary(record.FilesTransferred, err))
}

// History writes records as a table, newest first.
func (r *PlainReporter) History(records []history.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(records) == 0 {
		r.printf("no sync runs recorded\n")
		return
	}

	for _, record := range records {
		status := shared.SymbolDone
		if !record.Success {
			status = shared.SymbolFailed
		}

		r.printf("%s  %s  %5d files", record.Timestamp.Local().Format(time.DateTime), status, record.FilesTransferred)

		if record.ErrorMessage != "" {
			r.printf("  %s", record.ErrorMessage)
		}

		r.printf("\n")
	}
}

func (r *PlainReporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.Out, format, args...)
}
