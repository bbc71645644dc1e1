// Package tui provides the terminal user interface for bakeplan.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bakeplan/bakeplan/internal/config"
	"github.com/bakeplan/bakeplan/internal/tui/components"
)

// Theme contains all style definitions for the app chrome.
type Theme struct {
	// Colors (raw values for reference)
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	AccentColor    lipgloss.Color
	InverseColor   lipgloss.Color
	ErrorColor     lipgloss.Color
	WarningColor   lipgloss.Color
	SuccessColor   lipgloss.Color
	MutedColor     lipgloss.Color

	Base lipgloss.Style

	// Color styles (for direct use)
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style

	// Component styles
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Box       lipgloss.Style
	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	StatusDivider lipgloss.Style
}

type palette struct {
	primary, secondary, accent, inverse, muted lipgloss.Color
	errorColor, warningColor, successColor    lipgloss.Color
}

// NewTheme creates a theme for the configured palette.
func NewTheme(name config.Theme) *Theme {
	switch name {
	case config.ThemeCocoa:
		return buildTheme(palette{
			primary:      "#E8C9A0",
			secondary:    "#A0724A",
			accent:       "#F2A65A",
			inverse:      "#1E130C",
			muted:        "#5E4330",
			errorColor:   "#E5534B",
			warningColor: "#F2C14E",
			successColor: "#9CCB86",
		})
	case config.ThemePlain:
		return buildTheme(palette{
			primary:      "#FFFFFF",
			secondary:    "#AAAAAA",
			accent:       "#FFFFFF",
			inverse:      "#000000",
			muted:        "#666666",
			errorColor:   "#FF4444",
			warningColor: "#FFAA00",
			successColor: "#00CC66",
		})
	default:
		return buildTheme(palette{
			primary:      components.ColorText,
			secondary:    components.ColorLabel,
			accent:       components.ColorTitle,
			inverse:      components.ColorInverse,
			muted:        components.ColorMuted,
			errorColor:   components.ColorError,
			warningColor: components.ColorWarning,
			successColor: components.ColorOK,
		})
	}
}

func buildTheme(p palette) *Theme {
	t := &Theme{
		PrimaryColor:   p.primary,
		SecondaryColor: p.secondary,
		AccentColor:    p.accent,
		InverseColor:   p.inverse,
		MutedColor:     p.muted,
		ErrorColor:     p.errorColor,
		WarningColor:   p.warningColor,
		SuccessColor:   p.successColor,
	}

	t.Base = lipgloss.NewStyle().Foreground(p.primary)

	t.Primary = lipgloss.NewStyle().Foreground(p.primary)
	t.Secondary = lipgloss.NewStyle().Foreground(p.secondary)
	t.Accent = lipgloss.NewStyle().Foreground(p.accent)
	t.Error = lipgloss.NewStyle().Foreground(p.errorColor)
	t.Warning = lipgloss.NewStyle().Foreground(p.warningColor)
	t.Success = lipgloss.NewStyle().Foreground(p.successColor)
	t.Muted = lipgloss.NewStyle().Foreground(p.muted)

	t.Header = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(p.secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true).
		Padding(0, 1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true).
		Padding(0, 1)

	t.Label = lipgloss.NewStyle().Foreground(p.secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.secondary).
		Padding(0, 1)

	t.Alert = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true)

	t.AlertWarn = lipgloss.NewStyle().
		Foreground(p.warningColor).
		Bold(true)

	t.AlertCrit = lipgloss.NewStyle().
		Foreground(p.errorColor).
		Bold(true)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(p.muted).
		SetString(" │ ")

	return t
}

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Secondary.Render(strings.Repeat("─", max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Accent.Render(strings.Repeat("═", max(width, 0)))
}
