package tui

import (
	"fmt"
	"strings"

	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/internal/tui/shared"
	"github.com/joe/media-mirror/pkg/errors"
)

// View implements tea.Model
func (m *Model) View() string {
	var builder strings.Builder

	builder.WriteString(shared.RenderTitle("Media Mirror → " + m.title))
	builder.WriteString("\n")

	switch {
	case m.running:
		builder.WriteString(m.renderRunning())
	case m.runs == 0 && m.last == nil:
		builder.WriteString(m.spinner.View())
		builder.WriteString(" Waiting for the first sync\n")
	default:
		builder.WriteString(m.renderPairs())
	}

	if m.last != nil {
		builder.WriteString("\n")
		builder.WriteString(RenderSummary(m.last.Record.FilesTransferred, m.last.Err))
	}

	builder.WriteString("\n")
	builder.WriteString(m.renderFooter())

	return builder.String()
}

func (m *Model) renderRunning() string {
	var builder strings.Builder

	builder.WriteString(m.spinner.View())
	builder.WriteString(" Syncing ")
	builder.WriteString(shared.FormatCount(m.overall))
	builder.WriteString("\n")
	builder.WriteString(shared.RenderProgress(m.progress, m.overall))
	builder.WriteString("\n\n")
	builder.WriteString(m.renderPairs())

	return builder.String()
}

func (m *Model) renderPairs() string {
	width := 0
	for _, line := range m.pairs {
		width = max(width, len(line.name))
	}

	var builder strings.Builder

	for _, line := range m.pairs {
		symbol := shared.RenderDim(shared.SymbolPending)

		switch {
		case line.err != nil:
			symbol = shared.RenderError(shared.SymbolFailed)
		case line.finished:
			symbol = shared.RenderSuccess(shared.SymbolDone)
		}

		fmt.Fprintf(&builder, "  %s %s  %s", symbol,
			shared.RenderLabel(fmt.Sprintf("%-*s", width, line.name)), shared.FormatCount(line.stats))

		if line.finished {
			builder.WriteString(shared.RenderDim(fmt.Sprintf(" (%d copied)", line.copied)))
		}

		builder.WriteString("\n")
	}

	return builder.String()
}

func (m *Model) renderFooter() string {
	switch {
	case m.done:
		return ""
	case m.quitting:
		return shared.RenderDim("Stopping after the current file... press ctrl+c again to quit now")
	default:
		return shared.RenderDim("Press q or ctrl+c to quit")
	}
}

// RenderSummary describes a finished run. Failures carry the enriched error's
// suggestions, plus a re-grant hint when folder access was refused.
func RenderSummary(copied int, runErr error) string {
	if runErr == nil {
		return shared.RenderSuccess(fmt.Sprintf("%s Sync complete: %d files copied", shared.SymbolDone, copied)) + "\n"
	}

	var builder strings.Builder

	builder.WriteString(shared.RenderError(fmt.Sprintf("%s Sync failed after copying %d files", shared.SymbolFailed, copied)))
	builder.WriteString("\n")
	builder.WriteString(runErr.Error())
	builder.WriteString("\n")

	if syncengine.NeedsReauthorization(runErr) {
		builder.WriteString("\n")
		builder.WriteString(shared.RenderWarning("Folder access was refused. Re-grant access to the source and backup folders, then sync again."))
		builder.WriteString("\n")
	}

	suggestions := errors.FormatSuggestions(errors.NewEnricher().Enrich(runErr, ""))
	if suggestions != "" {
		builder.WriteString("\n")
		builder.WriteString(shared.RenderBox("Suggestions:\n" + suggestions))
		builder.WriteString("\n")
	}

	return builder.String()
}
