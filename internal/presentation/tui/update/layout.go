package update

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/tesso57/jelly/internal/presentation/tui/metrics"
	"github.com/tesso57/jelly/internal/presentation/tui/state"
)

type layoutMetrics struct {
	sidebarWidth      int
	mainWidth         int
	sidebarListHeight int
	mainHeight        int
	rollListHeight    int
}

// UpdateListSizes fits the lists to the window.
func UpdateListSizes(s *state.ModelState) {
	if s.Width <= 0 || s.Height <= 0 {
		return
	}

	layout := buildLayoutMetrics(s)
	s.VideoList.SetSize(layout.sidebarWidth, layout.sidebarListHeight)
	s.RollList.SetSize(s.Width, layout.rollListHeight)
}

// MainSize returns the width and height of the main content area.
func MainSize(s *state.ModelState) (int, int) {
	layout := buildLayoutMetrics(s)
	if s.Session == state.FeedView {
		return layout.mainWidth, layout.mainHeight
	}
	return s.Width, layout.mainHeight
}

func buildLayoutMetrics(s *state.ModelState) layoutMetrics {
	footerHeight := footerHeight(s)
	availableHeight := clampMin(s.Height-footerHeight-metrics.TabBarLines, 1)

	sidebarWidth := s.Width / 3
	mainWidth := clampMin(s.Width-sidebarWidth-metrics.SidebarRightBorderWidth, 1)

	sidebarListHeight := clampMin(availableHeight-metrics.SidebarTitleLines, 1)
	sidebarListHeight = reservePaginationSpace(s.VideoList, sidebarListHeight)
	rollListHeight := reservePaginationSpace(s.RollList, availableHeight)

	return layoutMetrics{
		sidebarWidth:      sidebarWidth,
		mainWidth:         mainWidth,
		sidebarListHeight: sidebarListHeight,
		mainHeight:        availableHeight,
		rollListHeight:    rollListHeight,
	}
}

func footerHeight(s *state.ModelState) int {
	s.Help.Width = s.Width
	helpText := s.Help.View(&s.Keys)
	return lipgloss.Height(state.FooterText(s.Session, s.StatusMessage, helpText))
}

func reservePaginationSpace(m list.Model, height int) int {
	if height <= 1 || !m.ShowPagination() {
		return height
	}

	statusHeight := 0
	if m.ShowStatusBar() {
		statusHeight = 1
	}

	availHeight := height - statusHeight
	if availHeight < 1 {
		return height
	}

	if len(m.VisibleItems()) > availHeight {
		return height - 1
	}
	return height
}

func clampMin(value, min int) int {
	if value < min {
		return min
	}
	return value
}
