// Package header provides the tab bar component.
package header

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Props defines the properties for the header component.
type Props struct {
	Tabs   []string
	Active int
	Accent string
	Muted  string
	// Status is shown right of the tabs, e.g. a recording indicator.
	Status string
}

// Render renders the header component.
func Render(p Props) string {
	if len(p.Tabs) == 0 {
		return ""
	}
	active := lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Foreground(lipgloss.Color(p.Accent)).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Muted)).
		Padding(0, 1)

	rendered := make([]string, len(p.Tabs))
	for i, tab := range p.Tabs {
		if i == p.Active {
			rendered[i] = active.Render(tab)
		} else {
			rendered[i] = inactive.Render(tab)
		}
	}
	line := strings.Join(rendered, "│")
	if p.Status != "" {
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)).Render(p.Status)
	}
	return line
}
