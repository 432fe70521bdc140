// Package tui renders the password reset and product search screens in the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#8a8f98")
	colorError   = lipgloss.Color("#e53935")
	colorSuccess = lipgloss.Color("#8BC34A")
)

type Styles struct {
	Title   lipgloss.Style
	Help    lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Info    lipgloss.Style
	Item    lipgloss.Style
	Price   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1),
		Help:    lipgloss.NewStyle().Foreground(colorMuted),
		Error:   lipgloss.NewStyle().Foreground(colorError),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Info:    lipgloss.NewStyle().Foreground(colorPrimary),
		Item:    lipgloss.NewStyle().PaddingLeft(2),
		Price:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}
