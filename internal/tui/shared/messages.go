package shared

import (
	"github.com/joe/media-mirror/internal/history"
)

// RunResultMsg is sent after each sync run has been recorded.
type RunResultMsg struct {
	Record history.Record
	Err    error
}

// DoneMsg is sent when the background work has returned and the program
// should exit.
type DoneMsg struct {
	Err error
}
