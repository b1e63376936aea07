package tui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/tesso57/jelly/internal/application/playback"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/domain/video"
	"github.com/tesso57/jelly/internal/presentation/tui/update"
)

type fakePlayer struct {
	url      string
	released atomic.Int32
}

func (p *fakePlayer) Play(context.Context) error { return nil }

func (p *fakePlayer) Release() error {
	p.released.Add(1)
	return nil
}

type playerLog struct {
	mu      sync.Mutex
	players []*fakePlayer
}

func (l *playerLog) factory() playback.PlayerFactory {
	return playback.PlayerFactoryFunc(func(_ context.Context, item video.Item) (playback.Player, error) {
		p := &fakePlayer{url: item.VideoURL}
		l.mu.Lock()
		l.players = append(l.players, p)
		l.mu.Unlock()
		return p, nil
	})
}

func (l *playerLog) all() []*fakePlayer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakePlayer(nil), l.players...)
}

func (l *playerLog) live() int {
	n := 0
	for _, p := range l.all() {
		if p.released.Load() == 0 {
			n++
		}
	}
	return n
}

type fakeFeed struct {
	refreshes atomic.Int32
}

func (f *fakeFeed) Refresh(context.Context) uint64 {
	return uint64(f.refreshes.Add(1))
}

type stubRecorder struct {
	mock.Mock
}

func (r *stubRecorder) Start(_ context.Context, opts recording.Options) error {
	return r.Called(opts).Error(0)
}

func (r *stubRecorder) Stop(context.Context) error {
	return r.Called().Error(0)
}

type stubRoll struct {
	mock.Mock
	clips []video.Clip
}

func (r *stubRoll) List() ([]video.Clip, error) {
	if len(r.ExpectedCalls) > 0 {
		args := r.Called()
		clips, _ := args.Get(0).([]video.Clip)
		return clips, args.Error(1)
	}
	return append([]video.Clip(nil), r.clips...), nil
}

func (r *stubRoll) Rescan() ([]video.Clip, error) {
	return r.List()
}

func (r *stubRoll) Delete(id string) ([]video.Clip, error) {
	out := r.clips[:0]
	for _, c := range r.clips {
		if c.ID != id {
			out = append(out, c)
		}
	}
	r.clips = out
	return r.List()
}

type stubPrefs struct {
	mock.Mock
}

func (p *stubPrefs) SetQuality(q video.Quality) error { return p.Called(q).Error(0) }

func (p *stubPrefs) SetDuration(d time.Duration) error { return p.Called(d).Error(0) }

func (p *stubPrefs) SetAudio(on bool) error { return p.Called(on).Error(0) }

type testEnv struct {
	players  *playerLog
	pager    *playback.Pager
	feed     *fakeFeed
	recorder *stubRecorder
	roll     *stubRoll
	cameras  []video.Camera
	opened   []string
}

func (e *testEnv) listCameras() ([]video.Camera, error) {
	return e.cameras, nil
}

func testSettings() settings.Settings {
	return settings.Settings{
		KeyMap: settings.KeyMapConfig{
			Up:             "k,up",
			Down:           "j,down",
			Play:           "enter",
			Refresh:        "r",
			NextTab:        "tab,l",
			PrevTab:        "shift+tab,h",
			Record:         "s",
			ToggleDuration: "d",
			CycleQuality:   "c",
			ToggleSound:    "m",
			SwitchCamera:   "f",
			Delete:         "x",
			Quit:           "q",
		},
		Recorder: settings.RecorderConfig{
			Quality:         "MEDIUM",
			Audio:           true,
			DurationSeconds: 15,
		},
		Theme: settings.ThemeConfig{Accent: "205", Muted: "240", Error: "196"},
	}
}

func newTestModel(cfg settings.Settings, prefs update.Preferences) (*Model, *testEnv) {
	env := &testEnv{
		players:  &playerLog{},
		feed:     &fakeFeed{},
		recorder: &stubRecorder{},
		roll:     &stubRoll{},
	}
	env.pager = playback.NewPager(env.players.factory(), zerolog.Nop())
	deps := update.Deps{
		Ctx:       context.Background(),
		Feed:      env.feed,
		Pager:     env.pager,
		Recorder:  env.recorder,
		Roll:      env.roll,
		Cameras:   env.listCameras,
		Camera:    "/dev/video0",
		OutputDir: "/tmp/jelly",
		OpenFile: func(path string) error {
			env.opened = append(env.opened, path)
			return nil
		},
	}
	if prefs != nil {
		deps.Prefs = prefs
	}
	m := NewModel(cfg, deps, Channels{})
	m.now = func() time.Time { return time.Date(2026, 5, 6, 7, 8, 16, 0, time.UTC) }
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, env
}

// collect runs cmd and flattens batches into the messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// drive runs cmd and feeds its messages back into the model.
func drive(m *Model, cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
}

func press(m *Model, keys string) tea.Cmd {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func sampleVideos() []video.Item {
	return []video.Item{
		{ID: "a", VideoURL: "https://cdn.example.com/a.mp4", Title: "First", Author: "alice"},
		{ID: "b", VideoURL: "https://cdn.example.com/b.mp4", Title: "Second", Author: "bob"},
		{ID: "c", VideoURL: "", Title: "Broken"},
	}
}

func loadVideos(m *Model, videos []video.Item) {
	_, cmd := m.Update(update.FeedStateMsg{State: video.FeedState{Videos: videos, Generation: 1}})
	drive(m, cmd)
}
