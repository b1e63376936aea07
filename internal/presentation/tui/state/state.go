// Package state holds UI state types for the TUI.
package state

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/tesso57/jelly/internal/application/settings"
)

// Session represents the current view state.
type Session int

const (
	FeedView Session = iota
	CameraView
	RollView
	DeleteClipView
	QuitView
)

// Tabs lists the navigable tabs in display order.
var Tabs = []Session{FeedView, CameraView, RollView}

// TabTitle returns the tab label for a session.
func TabTitle(s Session) string {
	switch s {
	case FeedView:
		return "Feed"
	case CameraView:
		return "Camera"
	case RollView:
		return "Roll"
	default:
		return ""
	}
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Play           key.Binding
	Refresh        key.Binding
	NextTab        key.Binding
	PrevTab        key.Binding
	Tab1           key.Binding
	Tab2           key.Binding
	Tab3           key.Binding
	Record         key.Binding
	ToggleDuration key.Binding
	CycleQuality   key.Binding
	ToggleSound    key.Binding
	SwitchCamera   key.Binding
	Delete         key.Binding
	Quit           key.Binding
	Help           key.Binding
}

// ShortHelp returns a subset of keybindings for the help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit, k.NextTab, k.Play}
}

// FullHelp returns all keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Play, k.Refresh},
		{k.NextTab, k.PrevTab, k.Tab1, k.Tab2, k.Tab3},
		{k.Record, k.ToggleDuration, k.CycleQuality, k.ToggleSound, k.SwitchCamera},
		{k.Delete, k.Quit, k.Help},
	}
}

// NewKeyMap creates a new KeyMap from the configuration.
func NewKeyMap(cfg settings.KeyMapConfig) KeyMap {
	return KeyMap{
		Up:             binding(cfg.Up, "previous"),
		Down:           binding(cfg.Down, "next"),
		Play:           binding(cfg.Play, "play/open"),
		Refresh:        binding(cfg.Refresh, "refresh"),
		NextTab:        binding(cfg.NextTab, "next tab"),
		PrevTab:        binding(cfg.PrevTab, "prev tab"),
		Tab1:           binding("1", "feed"),
		Tab2:           binding("2", "camera"),
		Tab3:           binding("3", "roll"),
		Record:         binding(cfg.Record, "record/stop"),
		ToggleDuration: binding(cfg.ToggleDuration, "15s/60s"),
		CycleQuality:   binding(cfg.CycleQuality, "quality"),
		ToggleSound:    binding(cfg.ToggleSound, "sound"),
		SwitchCamera:   binding(cfg.SwitchCamera, "back/front"),
		Delete:         binding(cfg.Delete, "delete clip"),
		Quit:           binding(cfg.Quit, "quit"),
		Help:           binding("?", "toggle help"),
	}
}

func binding(keys, help string) key.Binding {
	return key.NewBinding(
		key.WithKeys(splitKeys(keys)...),
		key.WithHelp(keys, help),
	)
}

func splitKeys(keys string) []string {
	parts := strings.Split(keys, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		keyName := strings.TrimSpace(part)
		if keyName == "" {
			continue
		}
		out = append(out, keyName)
		switch keyName {
		case "pgdn":
			out = append(out, "pgdown")
		case "pgdown":
			out = append(out, "pgdn")
		}
	}
	return out
}
