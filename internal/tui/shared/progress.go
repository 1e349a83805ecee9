package shared

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/joe/media-mirror/internal/syncengine"
)

// Fraction returns the processed share of stats, between 0 and 1. An empty
// run counts as complete.
func Fraction(stats syncengine.SyncStats) float64 {
	if stats.TotalFiles <= 0 {
		return 1
	}

	return min(1, float64(stats.FilesCopied)/float64(stats.TotalFiles))
}

// FormatCount renders stats as "done/total files".
func FormatCount(stats syncengine.SyncStats) string {
	return fmt.Sprintf("%d/%d files", stats.FilesCopied, stats.TotalFiles)
}

// NewProgressModel creates a progress bar model with the specified width.
func NewProgressModel(width int) progress.Model {
	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.Width = width
	progressBar.ShowPercentage = false // RenderProgress appends the percentage

	if !colorsDisabled {
		progressBar.EmptyColor = dimColorCode
		progressBar.FullColor = accentColorCode
	}

	return progressBar
}

// RenderASCIIProgress renders a progress bar in ASCII format.
// percent should be between 0.0 and 1.0, width is the total width of the bar.
// Returns a string like: "[=========>          ] 45%"
func RenderASCIIProgress(percent float64, width int) string {
	pct := int(percent * ProgressPercentageScale)
	filled := int(percent * float64(width))

	var bar strings.Builder
	bar.WriteString("[")

	const (
		minWideBarWidth    = 3 // Minimum width to show equals before arrow
		arrowSpaceReserved = 2 // Space reserved for arrow and spacing in wide bars
	)

	switch {
	case filled >= width:
		bar.WriteString(strings.Repeat("=", width))
	case percent > 0:
		var equalsCount int
		if filled >= minWideBarWidth {
			equalsCount = filled - arrowSpaceReserved
		} else {
			equalsCount = max(0, filled-1)
		}

		bar.WriteString(strings.Repeat("=", equalsCount))
		bar.WriteString(">")
		bar.WriteString(strings.Repeat(" ", width-equalsCount-1))
	default:
		bar.WriteString(strings.Repeat(" ", width))
	}

	bar.WriteString("]")

	return fmt.Sprintf("%s %d%%", bar.String(), pct)
}

// RenderProgress renders stats with the styled bar, or with the ASCII
// fallback when NO_COLOR is set or TERM=dumb.
func RenderProgress(model progress.Model, stats syncengine.SyncStats) string {
	percent := Fraction(stats)

	if colorsDisabled {
		return RenderASCIIProgress(percent, model.Width)
	}

	return fmt.Sprintf("%s %d%%", model.ViewAs(percent), int(percent*ProgressPercentageScale))
}
