// Package mainview provides the main content area component.
package mainview

import (
	"github.com/charmbracelet/lipgloss"
)

// Props defines the properties for the main view component.
type Props struct {
	Width  int
	Height int
	Header string
	// Banner replaces Body when set, e.g. a load error.
	Banner      string
	BannerColor string
	Body        string
}

// Render renders the main view component.
func Render(p Props) string {
	mainStyle := lipgloss.NewStyle().
		Width(p.Width).
		Height(p.Height).
		PaddingLeft(1)

	body := p.Body
	if p.Banner != "" {
		body = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.BannerColor)).
			Render(p.Banner)
	}

	content := body
	if p.Header != "" {
		if body != "" {
			content = p.Header + "\n" + body
		} else {
			content = p.Header
		}
	}
	return mainStyle.Render(content)
}
