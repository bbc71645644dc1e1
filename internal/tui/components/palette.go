package components

import "github.com/charmbracelet/lipgloss"

// Colors shared by components and views. The app theme uses the same
// buttercream palette by default.
var (
	ColorText    = lipgloss.Color("#F5E6C8")
	ColorLabel   = lipgloss.Color("#C9A66B")
	ColorTitle   = lipgloss.Color("#FFD38A")
	ColorMuted   = lipgloss.Color("#7A6448")
	ColorError   = lipgloss.Color("#E5534B")
	ColorWarning = lipgloss.Color("#F0A742")
	ColorOK      = lipgloss.Color("#8CC084")
	ColorInverse = lipgloss.Color("#2B1D12")
)

// Styles is the set of text styles views render with.
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	OK      lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the view styles for the default palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(ColorTitle).Bold(true),
		Section: lipgloss.NewStyle().Foreground(ColorText).Bold(true),
		Label:   lipgloss.NewStyle().Foreground(ColorLabel),
		Value:   lipgloss.NewStyle().Foreground(ColorText),
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		Error:   lipgloss.NewStyle().Foreground(ColorError),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		OK:      lipgloss.NewStyle().Foreground(ColorOK),
		Help:    lipgloss.NewStyle().Foreground(ColorLabel),
	}
}

// HelpText picks the compact help line on narrow terminals.
func HelpText(width int, full, compact string) string {
	if width > 0 && width < 60 {
		return compact
	}
	return full
}
