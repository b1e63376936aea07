// Package listview provides list item delegates for the view layer.
package listview

import (
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// VideoEntry interface for items that can be rendered by VideoDelegate.
type VideoEntry interface {
	list.Item
	Title() string
	IsPlayable() bool
}

// unplayableMark prefixes feed entries without a video URL.
const unplayableMark = "✕ "

// VideoDelegate renders feed entries, dimming unplayable ones.
type VideoDelegate struct {
	Styles list.DefaultItemStyles
	Theme  lipgloss.Color
}

// NewVideoDelegate creates a new VideoDelegate.
func NewVideoDelegate(themeColor lipgloss.Color) *VideoDelegate {
	return &VideoDelegate{
		Styles: newItemStyles(themeColor),
		Theme:  themeColor,
	}
}

// Height returns the height of the item.
func (d *VideoDelegate) Height() int {
	return 1
}

// Spacing returns the spacing between items.
func (d *VideoDelegate) Spacing() int {
	return 0
}

// Update handles messages for the delegate.
func (d *VideoDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render renders the item.
func (d *VideoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(VideoEntry)
	if !ok {
		return
	}

	style := rowAt(d.Styles, m, index).title
	if i.IsPlayable() {
		_, _ = io.WriteString(w, style.Render(fit(m, style, i.Title())))
		return
	}
	title := fit(m, style, unplayableMark+i.Title())
	_, _ = io.WriteString(w, style.Faint(true).Render(title))
}
