package listview

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ClipEntry interface for items that can be rendered by ClipDelegate.
type ClipEntry interface {
	list.Item
	Title() string
	Description() string
	IsMuted() bool
}

// ClipDelegate renders camera roll entries on two lines.
type ClipDelegate struct {
	Styles list.DefaultItemStyles
}

// NewClipDelegate creates a new ClipDelegate highlighting the selected
// clip in accent.
func NewClipDelegate(accent lipgloss.Color) *ClipDelegate {
	return &ClipDelegate{Styles: newItemStyles(accent)}
}

// Height returns the height of the item.
func (d *ClipDelegate) Height() int {
	return 2
}

// Spacing returns the spacing between items.
func (d *ClipDelegate) Spacing() int {
	return 1
}

// Update handles messages for the delegate.
func (d *ClipDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render renders the item.
func (d *ClipDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(ClipEntry)
	if !ok {
		return
	}

	title := i.Title()
	if i.IsMuted() {
		title = fmt.Sprintf("[M] %s", title)
	}

	r := rowAt(d.Styles, m, index)
	_, _ = io.WriteString(w, lipgloss.JoinVertical(lipgloss.Left,
		r.title.Render(fit(m, r.title, title)),
		r.desc.Render(fit(m, r.desc, i.Description())),
	))
}
