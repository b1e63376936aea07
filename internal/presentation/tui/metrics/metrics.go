// Package metrics centralizes layout constants for the TUI.
package metrics

const (
	TabBarLines             = 1
	SidebarTitleLines       = 2
	HeaderWidthPadding      = 3
	SidebarRightBorderWidth = 1

	ItemRightPadding  = 1
	ItemSafetyPadding = 1
)
