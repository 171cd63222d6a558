package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#b5452b")
	muted       = lipgloss.Color("#8a8a8a")
	success     = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
)

// Styles groups every lipgloss style the browser uses.
type Styles struct {
	Header      lipgloss.Style
	Badge       lipgloss.Style
	Card        lipgloss.Style
	Selected    lipgloss.Style
	Hidden      lipgloss.Style
	Title       lipgloss.Style
	Price       lipgloss.Style
	Description lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Modal       lipgloss.Style
	Help        lipgloss.Style
}

func DefaultStyles() Styles {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)

	return Styles{
		Header:      lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Badge:       lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(accent).Padding(0, 1),
		Card:        card,
		Selected:    card.BorderForeground(accent),
		Hidden:      card.Faint(true),
		Title:       lipgloss.NewStyle().Bold(true),
		Price:       lipgloss.NewStyle().Foreground(accent),
		Description: lipgloss.NewStyle().Foreground(muted),
		Muted:       lipgloss.NewStyle().Foreground(muted),
		Error:       lipgloss.NewStyle().Foreground(destructive).Bold(true),
		Success:     lipgloss.NewStyle().Foreground(success).Bold(true),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(1, 2),
		Help: lipgloss.NewStyle().Foreground(muted).MarginTop(1),
	}
}
