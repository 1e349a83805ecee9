// Package tui renders sync runs in the terminal: a bubbletea program for
// interactive terminals and a line reporter for everything else.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/internal/tui/shared"
)

// Model shows the current run's progress per pair and the outcome of the
// most recent recorded run.
type Model struct {
	title  string
	bridge *shared.EventBridge
	cancel context.CancelFunc

	spinner  spinner.Model
	progress progress.Model

	pairs   []pairLine
	overall syncengine.SyncStats
	running bool
	runs    int

	last *shared.RunResultMsg

	quitting bool
	done     bool
	doneErr  error
	width    int
}

// pairLine is the display state of one pair in the current run.
type pairLine struct {
	name     string
	stats    syncengine.SyncStats
	copied   int
	finished bool
	err      error
}

// NewModel creates a Model that reads engine events from bridge. cancel is
// called when the user asks to quit so background work can wind down.
func NewModel(title string, bridge *shared.EventBridge, cancel context.CancelFunc) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = shared.DimStyle()

	return &Model{
		title:    title,
		bridge:   bridge,
		cancel:   cancel,
		spinner:  spin,
		progress: shared.NewProgressModel(shared.ProgressBarWidth),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bridge.ListenCmd())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(shared.DefaultPadding, min(msg.Width-shared.DefaultPadding*4, shared.MaxProgressBarWidth))

		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case shared.EngineEventMsg:
		m.applyEvent(msg.Event)
		return m, m.bridge.ListenCmd()
	case shared.RunResultMsg:
		m.last = &msg
		return m, nil
	case shared.DoneMsg:
		m.done = true
		m.doneErr = msg.Err

		return m, tea.Quit
	}

	return m, nil
}

// Err returns the error the background work finished with.
func (m *Model) Err() error {
	return m.doneErr
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case shared.KeyCtrlC, shared.KeyQuit:
		if m.quitting {
			// Second request: stop waiting for the current run
			return m, tea.Quit
		}

		m.quitting = true
		if m.cancel != nil {
			m.cancel()
		}

		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) applyEvent(event syncengine.Event) {
	switch event := event.(type) {
	case syncengine.RunStarted:
		m.running = true
		m.runs++
		m.overall = syncengine.SyncStats{}
		m.pairs = make([]pairLine, len(event.Pairs))

		for i, name := range event.Pairs {
			m.pairs[i] = pairLine{name: name}
		}
	case syncengine.PairScanned:
		if line := m.pair(event.Pair); line != nil {
			line.stats.TotalFiles = event.Total
		}
	case syncengine.PairProgress:
		if line := m.pair(event.Pair); line != nil {
			line.stats = event.Stats
		}
	case syncengine.Progress:
		if event.Stats.FilesCopied >= m.overall.FilesCopied {
			m.overall = event.Stats
		}
	case syncengine.PairFinished:
		if line := m.pair(event.Pair); line != nil {
			line.finished = true
			line.copied = event.Copied
			line.err = event.Err

			if event.Err == nil {
				line.stats.FilesCopied = line.stats.TotalFiles
			}
		}
	case syncengine.RunFinished:
		m.running = false
		m.overall = m.sumPairs()
	}
}

func (m *Model) pair(name string) *pairLine {
	for i := range m.pairs {
		if m.pairs[i].name == name {
			return &m.pairs[i]
		}
	}

	return nil
}

func (m *Model) sumPairs() syncengine.SyncStats {
	var total syncengine.SyncStats
	for _, line := range m.pairs {
		total.FilesCopied += line.stats.FilesCopied
		total.TotalFiles += line.stats.TotalFiles
	}

	return total
}
