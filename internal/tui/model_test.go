package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joe/media-mirror/internal/history"
	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/internal/tui/shared"
)

var _ = Describe("Model", func() {
	var (
		bridge    *shared.EventBridge
		model     *Model
		cancelled bool
	)

	apply := func(events ...syncengine.Event) {
		for _, event := range events {
			updated, cmd := model.Update(shared.EngineEventMsg{Event: event})
			model = updated.(*Model)

			Expect(cmd).NotTo(BeNil(), "the model keeps listening after each event")
		}
	}

	BeforeEach(func() {
		cancelled = false
		bridge = shared.NewEventBridge()
		model = NewModel("/backup", bridge, func() { cancelled = true })
	})

	AfterEach(func() {
		bridge.Close()
	})

	Describe("Init", func() {
		It("starts the spinner and the event listener", func() {
			Expect(model.Init()).NotTo(BeNil())
		})

		It("waits for the first sync", func() {
			Expect(model.View()).To(ContainSubstring("Waiting for the first sync"))
		})
	})

	Describe("Run progress", func() {
		BeforeEach(func() {
			apply(
				syncengine.RunStarted{Pairs: []string{"Originals", "Pictures"}},
				syncengine.PairScanned{Pair: "Originals", Total: 3},
				syncengine.PairScanned{Pair: "Pictures", Total: 2},
			)
		})

		It("lists every pair in run order", func() {
			Expect(model.pairs).To(HaveLen(2))
			Expect(model.pairs[0].name).To(Equal("Originals"))
			Expect(model.pairs[1].name).To(Equal("Pictures"))
			Expect(model.running).To(BeTrue())
		})

		It("tracks per-pair and combined progress", func() {
			apply(
				syncengine.PairProgress{Pair: "Originals", Stats: syncengine.SyncStats{FilesCopied: 2, TotalFiles: 3}},
				syncengine.Progress{Stats: syncengine.SyncStats{FilesCopied: 2, TotalFiles: 5}},
			)

			Expect(model.pairs[0].stats).To(Equal(syncengine.SyncStats{FilesCopied: 2, TotalFiles: 3}))
			Expect(model.overall).To(Equal(syncengine.SyncStats{FilesCopied: 2, TotalFiles: 5}))

			view := model.View()
			Expect(view).To(ContainSubstring("Syncing 2/5 files"))
			Expect(view).To(ContainSubstring("2/3 files"))
		})

		It("never moves combined progress backwards", func() {
			apply(
				syncengine.Progress{Stats: syncengine.SyncStats{FilesCopied: 3, TotalFiles: 5}},
				syncengine.Progress{Stats: syncengine.SyncStats{FilesCopied: 1, TotalFiles: 5}},
			)

			Expect(model.overall.FilesCopied).To(Equal(3))
		})

		It("completes a pair that finished cleanly even if its last progress was dropped", func() {
			apply(syncengine.PairFinished{Pair: "Pictures", Copied: 2})

			Expect(model.pairs[1].finished).To(BeTrue())
			Expect(model.pairs[1].stats).To(Equal(syncengine.SyncStats{FilesCopied: 2, TotalFiles: 2}))
			Expect(model.View()).To(ContainSubstring("(2 copied)"))
		})

		It("keeps a failed pair's partial count", func() {
			apply(
				syncengine.PairProgress{Pair: "Originals", Stats: syncengine.SyncStats{FilesCopied: 1, TotalFiles: 3}},
				syncengine.PairFinished{Pair: "Originals", Copied: 1, Err: errors.New("disk full")},
			)

			Expect(model.pairs[0].err).To(HaveOccurred())
			Expect(model.pairs[0].stats.FilesCopied).To(Equal(1))
		})

		It("ignores events for unknown pairs", func() {
			apply(syncengine.PairScanned{Pair: "Videos", Total: 9})

			Expect(model.pairs).To(HaveLen(2))
		})

		It("stops the spinner line when the run finishes", func() {
			apply(
				syncengine.PairFinished{Pair: "Originals", Copied: 3},
				syncengine.PairFinished{Pair: "Pictures", Copied: 2},
				syncengine.RunFinished{Copied: 5},
			)

			Expect(model.running).To(BeFalse())
			Expect(model.overall).To(Equal(syncengine.SyncStats{FilesCopied: 5, TotalFiles: 5}))
			Expect(model.View()).NotTo(ContainSubstring("Syncing"))
		})

		It("resets pair lines for the next run", func() {
			apply(
				syncengine.RunFinished{Copied: 0},
				syncengine.RunStarted{Pairs: []string{"Originals"}},
			)

			Expect(model.pairs).To(HaveLen(1))
			Expect(model.runs).To(Equal(2))
		})
	})

	Describe("Run results", func() {
		It("shows a successful summary", func() {
			record := history.NewRecord("id-1", time.Now(), 4, nil)

			updated, _ := model.Update(shared.RunResultMsg{Record: record})
			model = updated.(*Model)

			Expect(model.View()).To(ContainSubstring("Sync complete: 4 files copied"))
		})

		It("asks the user to re-grant access on permission errors", func() {
			runErr := &syncengine.AggregateError{
				First:  fmt.Errorf("%w: /Volumes/Photos/Originals", syncengine.ErrAccessDenied),
				Failed: []string{"Originals"},
			}
			record := history.NewRecord("id-2", time.Now(), 0, runErr)

			updated, _ := model.Update(shared.RunResultMsg{Record: record, Err: runErr})
			model = updated.(*Model)

			view := model.View()
			Expect(view).To(ContainSubstring("Sync failed after copying 0 files"))
			Expect(view).To(ContainSubstring("Re-grant access"))
		})
	})

	Describe("Quitting", func() {
		It("cancels the work on the first ctrl+c and waits", func() {
			updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
			model = updated.(*Model)

			Expect(cancelled).To(BeTrue())
			Expect(cmd).To(BeNil())
			Expect(model.View()).To(ContainSubstring("Stopping after the current file"))
		})

		It("quits immediately on the second ctrl+c", func() {
			model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

			_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(tea.Quit()))
		})

		It("quits when the work is done", func() {
			workErr := errors.New("boom")

			updated, cmd := model.Update(shared.DoneMsg{Err: workErr})
			model = updated.(*Model)

			Expect(cmd()).To(Equal(tea.Quit()))
			Expect(model.Err()).To(MatchError(workErr))
		})
	})

	Describe("Window size", func() {
		It("fits the progress bar to narrow terminals", func() {
			updated, _ := model.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
			model = updated.(*Model)

			Expect(model.progress.Width).To(Equal(22))
		})

		It("caps the progress bar on wide terminals", func() {
			updated, _ := model.Update(tea.WindowSizeMsg{Width: 300, Height: 10})
			model = updated.(*Model)

			Expect(model.progress.Width).To(Equal(shared.MaxProgressBarWidth))
		})
	})
})

var _ = Describe("RenderSummary", func() {
	It("includes suggestions for disk space errors", func() {
		runErr := &syncengine.CopyError{
			FileName: "clip.mov",
			Err:      &os.PathError{Op: "write", Path: "/backup/Originals/clip.mov", Err: syscall.ENOSPC},
		}

		summary := RenderSummary(2, runErr)
		Expect(summary).To(ContainSubstring("Suggestions:"))
		Expect(summary).NotTo(ContainSubstring("Re-grant access to the source and backup folders, then sync again"))
	})
})

var _ = Describe("Run", func() {
	It("returns the work error once the work finishes", func() {
		bridge := shared.NewEventBridge()
		workErr := errors.New("stopped")

		err := Run(context.Background(), "/backup", bridge,
			func(_ context.Context, notify func(tea.Msg)) error {
				notify(shared.RunResultMsg{Record: history.NewRecord("id", time.Now(), 0, workErr), Err: workErr})
				return workErr
			},
			tea.WithInput(nil), tea.WithOutput(GinkgoWriter), tea.WithoutRenderer())

		Expect(err).To(MatchError(workErr))
	})
})

func TestTUI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TUI Suite")
}
