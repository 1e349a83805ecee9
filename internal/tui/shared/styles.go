package shared

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Exported constants.
const (
	// DefaultPadding is the default padding for UI elements
	DefaultPadding = 2
	// ProgressBarWidth is the default width of progress bars
	ProgressBarWidth = 40
	// MaxProgressBarWidth is the maximum width for progress bars
	MaxProgressBarWidth = 80
	// ProgressPercentageScale is the scale for percentage calculations
	ProgressPercentageScale = 100

	// KeyCtrlC is the key binding for cancellation
	KeyCtrlC = "ctrl+c"
	// KeyQuit is the short quit key
	KeyQuit = "q"

	// SymbolDone marks a pair that finished cleanly
	SymbolDone = "✓"
	// SymbolFailed marks a pair that failed
	SymbolFailed = "✗"
	// SymbolPending marks a pair that is still running
	SymbolPending = "•"
)

func AccentColor() lipgloss.Color { return lipgloss.Color(accentColorCode) }

// BoxStyle returns the style for boxes with padding
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor()).
		Padding(0, DefaultPadding)
}

// ColorsDisabled reports whether output should avoid color and box drawing.
func ColorsDisabled() bool {
	return colorsDisabled
}

func DimColor() lipgloss.Color { return lipgloss.Color(dimColorCode) }

// DimStyle returns the style for dimmed text
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(DimColor())
}

func ErrorColor() lipgloss.Color { return lipgloss.Color(errorColorCode) }

// ErrorStyle returns the style for error messages
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ErrorColor()).
		Bold(true)
}

// LabelStyle returns the style for pair labels
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(NormalColor()).
		Bold(true)
}

func NormalColor() lipgloss.Color { return lipgloss.Color(normalColorCode) }

func PrimaryColor() lipgloss.Color { return lipgloss.Color(primaryColorCode) }

// RenderBox renders content in a box, or as-is when colors are disabled.
func RenderBox(content string) string {
	if colorsDisabled {
		return content
	}

	return BoxStyle().Render(content)
}

// RenderDim renders text in dim style
func RenderDim(text string) string {
	return DimStyle().Render(text)
}

// RenderError renders text in error style
func RenderError(text string) string {
	return ErrorStyle().Render(text)
}

// RenderLabel renders text in label style
func RenderLabel(text string) string {
	return LabelStyle().Render(text)
}

// RenderSuccess renders text in success style
func RenderSuccess(text string) string {
	return SuccessStyle().Render(text)
}

// RenderTitle renders text in title style
func RenderTitle(text string) string {
	return TitleStyle().Render(text)
}

// RenderWarning renders text in warning style
func RenderWarning(text string) string {
	return WarningStyle().Render(text)
}

// SetColorsDisabledForTesting overrides color detection.
func SetColorsDisabledForTesting(disabled bool) {
	colorsDisabled = disabled
}

func SuccessColor() lipgloss.Color { return lipgloss.Color(successColorCode) }

// SuccessStyle returns the style for success messages
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(SuccessColor()).
		Bold(true)
}

// TitleStyle returns the style for titles
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor()).
		MarginBottom(1)
}

func WarningColor() lipgloss.Color { return lipgloss.Color(warningColorCode) }

// WarningStyle returns the style for warning messages
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(WarningColor()).
		Bold(true)
}

// unexported constants.
const (
	accentColorCode  = "62"  // Blue
	dimColorCode     = "240" // Dark gray
	errorColorCode   = "196" // Red
	normalColorCode  = "252" // Light gray
	primaryColorCode = "205" // Pink/purple
	successColorCode = "42"  // Green
	warningColorCode = "226"
)

// unexported variables.
var (
	//nolint:gochecknoglobals // Detected once at startup; tests override it
	colorsDisabled = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"
)
