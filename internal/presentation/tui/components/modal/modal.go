// Package modal provides modal dialog components.
package modal

import (
	"github.com/charmbracelet/lipgloss"
)

// Kind represents the type of modal.
type Kind int

const (
	// None indicates no modal.
	None Kind = iota
	// Quit asks for quit confirmation.
	Quit
	// DeleteClip asks for clip deletion confirmation.
	DeleteClip
	// Help shows the help dialog.
	Help
)

// Props defines the properties for the modal component.
type Props struct {
	Visible bool
	Kind    Kind
	Body    string
	Width   int
	Height  int
	Accent  string
}

// Render renders the modal component.
func Render(p Props) string {
	if !p.Visible {
		return ""
	}

	borderColor := lipgloss.Color("63")
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2)

	switch p.Kind {
	case Quit, DeleteClip:
		if p.Accent != "" {
			borderColor = lipgloss.Color(p.Accent)
		}
		style = style.Width(40).Align(lipgloss.Center)
	}

	content := style.BorderForeground(borderColor).Render(p.Body)
	return lipgloss.Place(p.Width, p.Height, lipgloss.Center, lipgloss.Center, content)
}
