package state

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tesso57/jelly/internal/application/settings"
)

func TestFooterText(t *testing.T) {
	tests := []struct {
		name          string
		session       Session
		statusMessage string
		helpText      string
		want          string
	}{
		{
			name:     "help only when no status",
			session:  FeedView,
			helpText: "help",
			want:     "help",
		},
		{
			name:          "status prepended in camera view",
			session:       CameraView,
			statusMessage: "Saved VID_LOW_AUDIO.mp4",
			helpText:      "help",
			want:          "Saved VID_LOW_AUDIO.mp4\nhelp",
		},
		{
			name:          "status hidden behind quit dialog",
			session:       QuitView,
			statusMessage: "Saved",
			helpText:      "help",
			want:          "help",
		},
		{
			name:          "status only when help empty",
			session:       RollView,
			statusMessage: "  3 clips  ",
			want:          "3 clips",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FooterText(tt.session, tt.statusMessage, tt.helpText)
			if got != tt.want {
				t.Fatalf("FooterText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewKeyMap_SplitsKeys(t *testing.T) {
	keys := NewKeyMap(settings.KeyMapConfig{
		Down:    "j, down",
		NextTab: "tab,l",
		Quit:    "q",
	})

	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, keys.Down) {
		t.Error("Expected 'j' to match Down")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyDown}, keys.Down) {
		t.Error("Expected down arrow to match Down")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyTab}, keys.NextTab) {
		t.Error("Expected tab to match NextTab")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}}, keys.Tab2) {
		t.Error("Expected '2' to match Tab2")
	}
}

func TestSplitKeys_PageAliases(t *testing.T) {
	got := splitKeys("pgdn, ,x")
	want := []string{"pgdn", "pgdown", "x"}
	if len(got) != len(want) {
		t.Fatalf("splitKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitKeys() = %v, want %v", got, want)
		}
	}
}

func TestTabTitle(t *testing.T) {
	if TabTitle(CameraView) != "Camera" {
		t.Errorf("TabTitle(CameraView) = %q", TabTitle(CameraView))
	}
	if TabTitle(QuitView) != "" {
		t.Errorf("TabTitle(QuitView) = %q, want empty", TabTitle(QuitView))
	}
}
