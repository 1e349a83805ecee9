package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/media-mirror/internal/tui/shared"
)

// Work is the background job a program displays. notify delivers messages
// such as shared.RunResultMsg to the model.
type Work func(ctx context.Context, notify func(tea.Msg)) error

// Run shows a Model titled title while work runs, and returns work's error.
// work receives a context that is cancelled when the user quits; its engine
// events must go to bridge.
func Run(ctx context.Context, title string, bridge *shared.EventBridge, work Work, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(title, bridge, cancel)
	program := tea.NewProgram(model, opts...)

	workErr := make(chan error, 1)

	go func() {
		err := work(ctx, program.Send)
		workErr <- err

		program.Send(shared.DoneMsg{Err: err})
	}()

	_, err := program.Run()

	// Unblock the engine if the program exited before the work did.
	cancel()
	bridge.Close()

	runErr := <-workErr

	if err != nil {
		return fmt.Errorf("failed to run terminal UI: %w", err)
	}

	return runErr
}
