package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/domain/video"
	"github.com/tesso57/jelly/internal/presentation/tui/state"
	"github.com/tesso57/jelly/internal/presentation/tui/update"
	"github.com/tesso57/jelly/internal/presentation/tui/view"
	listview "github.com/tesso57/jelly/internal/presentation/tui/view/list"
)

// Channels are the state subscriptions the model listens on.
type Channels struct {
	Feed      <-chan video.FeedState
	Recording <-chan recording.Status
}

// Model represents the main application state.
type Model struct {
	settings settings.Settings
	deps     update.Deps
	channels Channels
	now      func() time.Time
	state    *state.ModelState
}

// NewModel creates a new application model.
func NewModel(cfg settings.Settings, deps update.Deps, channels Channels) *Model {
	if deps.OpenFile == nil {
		deps.OpenFile = openFile
	}
	return &Model{
		settings: cfg,
		deps:     deps,
		channels: channels,
		now:      time.Now,
		state:    newModelState(cfg),
	}
}

// Init subscribes to state updates and starts the first refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.state.Spinner.Tick,
		update.WaitForFeedCmd(m.channels.Feed),
		update.WaitForRecordingCmd(m.channels.Recording),
		update.RefreshFeedCmd(m.deps),
		update.ListCamerasCmd(m.deps),
	)
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := update.HandleKeyMsg(m.state, msg, m.deps)
		if handled {
			update.UpdateListSizes(m.state)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		update.HandleWindowSize(m.state, msg)
	case spinner.TickMsg:
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd
	case update.FeedStateMsg:
		cmds = append(cmds,
			update.HandleFeedStateMsg(m.state, msg, m.deps),
			update.WaitForFeedCmd(m.channels.Feed))
	case update.RecordingStatusMsg:
		cmds = append(cmds,
			update.HandleRecordingStatusMsg(m.state, msg, m.deps),
			update.WaitForRecordingCmd(m.channels.Recording))
	case update.PageMsg:
		update.HandlePageMsg(m.state, msg)
	case update.RecordResultMsg:
		update.HandleRecordResultMsg(m.state, msg)
	case update.RecordingTickMsg:
		cmds = append(cmds, update.HandleRecordingTickMsg(m.state))
	case update.ClipsLoadedMsg:
		update.HandleClipsLoadedMsg(m.state, msg)
	case update.CamerasListedMsg:
		update.HandleCamerasListedMsg(m.state, msg, m.deps)
	}

	if m.state.Session == state.RollView {
		m.state.RollList, cmd = m.state.RollList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the application view.
func (m *Model) View() string {
	if m.state.Quitting {
		return ""
	}
	return view.Render(m.buildProps())
}

func newModelState(cfg settings.Settings) *state.ModelState {
	quality, err := video.ParseQuality(cfg.Recorder.Quality)
	if err != nil {
		quality = video.QualityMedium
	}
	st := &state.ModelState{
		Session:   state.FeedView,
		VideoList: newVideoList(cfg),
		RollList:  newRollList(cfg),
		Help:      help.New(),
		Spinner:   newSpinner(cfg),
		Keys:      state.NewKeyMap(cfg.KeyMap),
		Feed:      video.FeedState{Loading: true},
		Camera: state.CameraOptions{
			Quality:  quality,
			Audio:    cfg.Recorder.Audio,
			Duration: cfg.RecordDuration(),
		},
	}
	return st
}

func newVideoList(cfg settings.Settings) list.Model {
	l := list.New([]list.Item{}, listview.NewVideoDelegate(lipgloss.Color(cfg.Theme.Accent)), 0, 0)
	l.Title = "Videos"
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func newRollList(cfg settings.Settings) list.Model {
	l := list.New([]list.Item{}, listview.NewClipDelegate(lipgloss.Color(cfg.Theme.Accent)), 0, 0)
	l.Title = "Camera roll"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func newSpinner(cfg settings.Settings) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Accent))
	return s
}
