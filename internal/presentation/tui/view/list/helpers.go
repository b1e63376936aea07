package listview

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/tesso57/jelly/internal/presentation/tui/metrics"
)

const ellipsis = "…"

// FitLine flattens text onto one line and cuts it to width cells.
func FitLine(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(strings.Join(strings.Fields(text), " "), width, ellipsis)
}

// newItemStyles pads every row style and paints the selected row in the
// theme accent.
func newItemStyles(accent lipgloss.Color) list.DefaultItemStyles {
	s := list.NewDefaultItemStyles()
	for _, st := range []*lipgloss.Style{
		&s.NormalTitle, &s.SelectedTitle, &s.DimmedTitle,
		&s.NormalDesc, &s.SelectedDesc, &s.DimmedDesc,
	} {
		*st = st.PaddingRight(metrics.ItemRightPadding)
	}
	if accent != "" {
		s.SelectedTitle = s.SelectedTitle.Foreground(accent).BorderForeground(accent)
		s.SelectedDesc = s.SelectedDesc.BorderForeground(accent)
	}
	return s
}

// row is the pair of styles one list entry renders with.
type row struct {
	title lipgloss.Style
	desc  lipgloss.Style
}

func rowAt(s list.DefaultItemStyles, m list.Model, index int) row {
	if index == m.Index() {
		return row{title: s.SelectedTitle, desc: s.SelectedDesc}
	}
	return row{title: s.NormalTitle, desc: s.NormalDesc}
}

// fit cuts text to what style leaves of the list width.
func fit(m list.Model, style lipgloss.Style, text string) string {
	return FitLine(text, m.Width()-style.GetHorizontalFrameSize()-metrics.ItemSafetyPadding)
}
