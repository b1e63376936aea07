// Package intent parses user input into UI intents.
package intent

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tesso57/jelly/internal/presentation/tui/state"
)

// Type represents a user intent.
type Type int

const (
	None Type = iota
	Quit
	ToggleHelp
	NextTab
	PrevTab
	SelectTab
	Up
	Down
	Play
	Refresh
	Record
	ToggleDuration
	CycleQuality
	ToggleSound
	SwitchCamera
	Delete
)

// Intent represents a parsed user intent.
type Intent struct {
	Type Type
	// Tab is set for SelectTab.
	Tab state.Session
}

// FromKeyMsg maps a key message to an intent.
func FromKeyMsg(msg tea.KeyMsg, keys state.KeyMap) Intent {
	switch {
	case key.Matches(msg, keys.Quit):
		return Intent{Type: Quit}
	case key.Matches(msg, keys.Help):
		return Intent{Type: ToggleHelp}
	case key.Matches(msg, keys.Tab1):
		return Intent{Type: SelectTab, Tab: state.FeedView}
	case key.Matches(msg, keys.Tab2):
		return Intent{Type: SelectTab, Tab: state.CameraView}
	case key.Matches(msg, keys.Tab3):
		return Intent{Type: SelectTab, Tab: state.RollView}
	case key.Matches(msg, keys.NextTab):
		return Intent{Type: NextTab}
	case key.Matches(msg, keys.PrevTab):
		return Intent{Type: PrevTab}
	case key.Matches(msg, keys.Up):
		return Intent{Type: Up}
	case key.Matches(msg, keys.Down):
		return Intent{Type: Down}
	case key.Matches(msg, keys.Play):
		return Intent{Type: Play}
	case key.Matches(msg, keys.Refresh):
		return Intent{Type: Refresh}
	case key.Matches(msg, keys.Record):
		return Intent{Type: Record}
	case key.Matches(msg, keys.ToggleDuration):
		return Intent{Type: ToggleDuration}
	case key.Matches(msg, keys.CycleQuality):
		return Intent{Type: CycleQuality}
	case key.Matches(msg, keys.ToggleSound):
		return Intent{Type: ToggleSound}
	case key.Matches(msg, keys.SwitchCamera):
		return Intent{Type: SwitchCamera}
	case key.Matches(msg, keys.Delete):
		return Intent{Type: Delete}
	default:
		return Intent{Type: None}
	}
}
