// Package tui provides the terminal styling and interactive prompts of the
// cstyle CLI.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary brand color, rose #ff5f87
	ColorPrimary = lipgloss.Color("204")

	// Secondary brand color, gold #ffd700
	ColorSecondary = lipgloss.Color("220")

	ColorBlack   = lipgloss.Color("16")
	ColorWhite   = lipgloss.Color("255")
	ColorGray    = lipgloss.Color("240")
	ColorSuccess = lipgloss.Color("42")
	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")
	ColorMuted   = lipgloss.Color("240")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// BadgeStyle marks the highlighted plan
	BadgeStyle = lipgloss.NewStyle().
			Background(ColorSecondary).
			Foreground(ColorBlack).
			Padding(0, 1)

	LinkStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Underline(true)

	// SecretStyle renders a revealed API key
	SecretStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	InputLabelStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)
)

// Box styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	// HighlightBoxStyle frames the recommended plan
	HighlightBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorSecondary).
				Padding(1, 2)

	WarningBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(1, 2)
)

// Progress styles
var (
	ProgressBarStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	ProgressFilledStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary)

	// ProgressCriticalStyle fills the bar once usage passes UsageWarnPercent
	ProgressCriticalStyle = lipgloss.NewStyle().
				Foreground(ColorError)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)

// Status indicators
const (
	StatusSuccess = "[OK]"
	StatusError   = "[ERR]"
	StatusWarning = "[WARN]"
	StatusInfo    = "[INFO]"

	ListCursor = ">"
)

func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

func RenderHeader(text string) string {
	return HeaderStyle.Render(text)
}

// RenderSuccess renders a success message with checkmark
func RenderSuccess(text string) string {
	return SuccessStyle.Render(StatusSuccess + " " + text)
}

// RenderError renders an error message with X mark
func RenderError(text string) string {
	return ErrorStyle.Render(StatusError + " " + text)
}

// RenderWarning renders a warning message with warning symbol
func RenderWarning(text string) string {
	return WarningStyle.Render(StatusWarning + " " + text)
}

// RenderInfo renders an info message with info symbol
func RenderInfo(text string) string {
	return MutedStyle.Render(StatusInfo + " " + text)
}

func RenderMuted(text string) string {
	return MutedStyle.Render(text)
}

func RenderLink(text string) string {
	return LinkStyle.Render(text)
}

func RenderSecret(text string) string {
	return SecretStyle.Render(text)
}

func RenderBox(content string) string {
	return BoxStyle.Render(content)
}

func RenderWarningBox(content string) string {
	return WarningBoxStyle.Render(content)
}

// RenderStatusLine renders "label: value" with the value coloured by status
// ("success", "error", "warning" or plain).
func RenderStatusLine(label, value string, status string) string {
	labelStyled := InputLabelStyle.Render(label + ":")
	var valueStyled string

	switch status {
	case "success":
		valueStyled = SuccessStyle.Render(value)
	case "error":
		valueStyled = ErrorStyle.Render(value)
	case "warning":
		valueStyled = WarningStyle.Render(value)
	default:
		valueStyled = value
	}

	return labelStyled + " " + valueStyled
}

// RenderLogo renders the brand header
func RenderLogo() string {
	return lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Render("CelebStyle")
}
