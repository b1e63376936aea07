// Package update holds UI update logic for the TUI.
package update

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tesso57/jelly/internal/application/playback"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/domain/video"
	"github.com/tesso57/jelly/internal/presentation/tui/intent"
	"github.com/tesso57/jelly/internal/presentation/tui/presenter"
	"github.com/tesso57/jelly/internal/presentation/tui/state"
	"golang.org/x/sync/errgroup"
)

// FeedRefresher starts a feed refresh.
type FeedRefresher interface {
	Refresh(ctx context.Context) uint64
}

// Pager is the playback pager driven by the feed tab.
type Pager interface {
	SetVideos(videos []video.Item) error
	Show(ctx context.Context, i int) (*playback.Page, error)
	Next(ctx context.Context) (*playback.Page, error)
	Prev(ctx context.Context) (*playback.Page, error)
	Replay(ctx context.Context) (*playback.Page, error)
	Index() int
	Close() error
}

// Recorder starts and stops recordings.
type Recorder interface {
	Start(ctx context.Context, opts recording.Options) error
	Stop(ctx context.Context) error
}

// CameraRoll lists and deletes recorded clips.
type CameraRoll interface {
	List() ([]video.Clip, error)
	Rescan() ([]video.Clip, error)
	Delete(id string) ([]video.Clip, error)
}

// Preferences persists camera choices. May be nil.
type Preferences interface {
	SetQuality(q video.Quality) error
	SetDuration(d time.Duration) error
	SetAudio(on bool) error
}

// Deps groups external dependencies for updates. Camera is the configured
// device, used when Cameras is nil or lists nothing matching it.
type Deps struct {
	Ctx       context.Context
	Feed      FeedRefresher
	Pager     Pager
	Recorder  Recorder
	Roll      CameraRoll
	Prefs     Preferences
	Cameras   func() ([]video.Camera, error)
	Camera    string
	OutputDir string
	OpenFile  func(string) error
}

func (d Deps) ctx() context.Context {
	if d.Ctx == nil {
		return context.Background()
	}
	return d.Ctx
}

// FeedStateMsg carries a feed snapshot from the state holder.
type FeedStateMsg struct {
	State video.FeedState
}

// RecordingStatusMsg carries a recording controller status.
type RecordingStatusMsg struct {
	Status recording.Status
}

// PageMsg is emitted after a pager operation.
type PageMsg struct {
	Index int
	State playback.State
	Err   error
}

// RecordResultMsg is emitted after a start or stop request returns.
type RecordResultMsg struct {
	Err error
}

// ClipsLoadedMsg is emitted after the camera roll is (re)loaded.
type ClipsLoadedMsg struct {
	Clips   []video.Clip
	Deleted bool
	Err     error
}

// CamerasListedMsg carries the detected capture devices.
type CamerasListedMsg struct {
	Cameras []video.Camera
	Err     error
}

// RecordingTickMsg refreshes the elapsed recording time.
type RecordingTickMsg struct{}

// ShutdownMsg is emitted once playback and recording are released.
type ShutdownMsg struct {
	Err error
}

// WaitForFeedCmd waits for the next feed snapshot.
func WaitForFeedCmd(ch <-chan video.FeedState) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return FeedStateMsg{State: st}
	}
}

// WaitForRecordingCmd waits for the next recording status.
func WaitForRecordingCmd(ch <-chan recording.Status) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return RecordingStatusMsg{Status: st}
	}
}

// RefreshFeedCmd starts a refresh. The result arrives through the feed
// subscription.
func RefreshFeedCmd(deps Deps) tea.Cmd {
	if deps.Feed == nil {
		return nil
	}
	return func() tea.Msg {
		deps.Feed.Refresh(deps.ctx())
		return nil
	}
}

func pageCmd(deps Deps, op func(context.Context) (*playback.Page, error)) tea.Cmd {
	if deps.Pager == nil {
		return nil
	}
	return func() tea.Msg {
		page, err := op(deps.ctx())
		msg := PageMsg{Index: deps.Pager.Index(), Err: err}
		if page != nil {
			msg.State = page.State()
		}
		return msg
	}
}

// ResetPagerCmd loads new videos into the pager and, when activate is set,
// starts the first page.
func ResetPagerCmd(deps Deps, videos []video.Item, activate bool) tea.Cmd {
	if deps.Pager == nil {
		return nil
	}
	items := append([]video.Item(nil), videos...)
	return pageCmd(deps, func(ctx context.Context) (*playback.Page, error) {
		if err := deps.Pager.SetVideos(items); err != nil {
			return nil, err
		}
		if !activate || len(items) == 0 {
			return nil, nil
		}
		return deps.Pager.Show(ctx, 0)
	})
}

// ReleasePageCmd releases the visible page.
func ReleasePageCmd(deps Deps) tea.Cmd {
	if deps.Pager == nil {
		return nil
	}
	return func() tea.Msg {
		err := deps.Pager.Close()
		return PageMsg{Index: deps.Pager.Index(), State: playback.StateReleased, Err: err}
	}
}

// StartRecordingCmd starts a recording with opts.
func StartRecordingCmd(deps Deps, opts recording.Options) tea.Cmd {
	if deps.Recorder == nil {
		return nil
	}
	return func() tea.Msg {
		return RecordResultMsg{Err: deps.Recorder.Start(deps.ctx(), opts)}
	}
}

// StopRecordingCmd stops the current recording.
func StopRecordingCmd(deps Deps) tea.Cmd {
	if deps.Recorder == nil {
		return nil
	}
	return func() tea.Msg {
		return RecordResultMsg{Err: deps.Recorder.Stop(deps.ctx())}
	}
}

// LoadClipsCmd lists the camera roll, rescanning the output directory
// first when rescan is set.
func LoadClipsCmd(deps Deps, rescan bool) tea.Cmd {
	if deps.Roll == nil {
		return nil
	}
	return func() tea.Msg {
		var (
			clips []video.Clip
			err   error
		)
		if rescan {
			clips, err = deps.Roll.Rescan()
		} else {
			clips, err = deps.Roll.List()
		}
		return ClipsLoadedMsg{Clips: clips, Err: err}
	}
}

// DeleteClipCmd deletes a clip and reloads the roll.
func DeleteClipCmd(deps Deps, id string) tea.Cmd {
	if deps.Roll == nil {
		return nil
	}
	return func() tea.Msg {
		clips, err := deps.Roll.Delete(id)
		return ClipsLoadedMsg{Clips: clips, Deleted: err == nil, Err: err}
	}
}

// ListCamerasCmd detects capture devices.
func ListCamerasCmd(deps Deps) tea.Cmd {
	if deps.Cameras == nil {
		return nil
	}
	return func() tea.Msg {
		cams, err := deps.Cameras()
		return CamerasListedMsg{Cameras: cams, Err: err}
	}
}

// ShutdownCmd releases the visible page and stops an active recording.
func ShutdownCmd(deps Deps) tea.Cmd {
	return func() tea.Msg {
		var g errgroup.Group
		if deps.Pager != nil {
			g.Go(deps.Pager.Close)
		}
		if deps.Recorder != nil {
			g.Go(func() error {
				err := deps.Recorder.Stop(deps.ctx())
				if errors.Is(err, recording.ErrNotRecording) {
					return nil
				}
				return err
			})
		}
		return ShutdownMsg{Err: g.Wait()}
	}
}

func recordingTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return RecordingTickMsg{} })
}

// HandleKeyMsg dispatches a key press. The bool reports whether the key
// was consumed.
func HandleKeyMsg(s *state.ModelState, msg tea.KeyMsg, deps Deps) (tea.Cmd, bool) {
	switch s.Session {
	case state.QuitView:
		return handleQuitView(s, msg, deps)
	case state.DeleteClipView:
		return handleDeleteClipView(s, msg, deps)
	}
	if s.Help.ShowAll && msg.String() == "esc" {
		s.Help.ShowAll = false
		return nil, true
	}

	parsed := intent.FromKeyMsg(msg, s.Keys)
	switch parsed.Type {
	case intent.Quit:
		s.Previous = s.Session
		s.Session = state.QuitView
		return nil, true
	case intent.ToggleHelp:
		s.Help.ShowAll = !s.Help.ShowAll
		return nil, true
	case intent.NextTab:
		return SwitchTab(s, deps, adjacentTab(s.Session, 1)), true
	case intent.PrevTab:
		return SwitchTab(s, deps, adjacentTab(s.Session, -1)), true
	case intent.SelectTab:
		return SwitchTab(s, deps, parsed.Tab), true
	}

	switch s.Session {
	case state.FeedView:
		return handleFeedViewIntent(s, parsed, deps)
	case state.CameraView:
		return handleCameraViewIntent(s, parsed, deps)
	case state.RollView:
		return handleRollViewIntent(s, parsed, deps)
	default:
		return nil, false
	}
}

func adjacentTab(current state.Session, delta int) state.Session {
	for i, tab := range state.Tabs {
		if tab == current {
			n := len(state.Tabs)
			return state.Tabs[((i+delta)%n+n)%n]
		}
	}
	return state.FeedView
}

// SwitchTab moves to target. Leaving the feed releases the player and
// returning to it replays the current page.
func SwitchTab(s *state.ModelState, deps Deps, target state.Session) tea.Cmd {
	if target == s.Session {
		return nil
	}
	leaving := s.Session
	s.Session = target
	s.StatusMessage = ""
	UpdateListSizes(s)

	var cmds []tea.Cmd
	if leaving == state.FeedView {
		cmds = append(cmds, ReleasePageCmd(deps))
	}
	switch target {
	case state.FeedView:
		if len(s.Feed.Videos) > 0 {
			cmds = append(cmds, pageCmd(deps, replay(deps)))
		}
	case state.CameraView:
		cmds = append(cmds, ListCamerasCmd(deps))
	case state.RollView:
		cmds = append(cmds, LoadClipsCmd(deps, false))
	}
	return tea.Batch(cmds...)
}

func replay(deps Deps) func(context.Context) (*playback.Page, error) {
	return func(ctx context.Context) (*playback.Page, error) { return deps.Pager.Replay(ctx) }
}

func handleQuitView(s *state.ModelState, msg tea.KeyMsg, deps Deps) (tea.Cmd, bool) {
	switch msg.String() {
	case "y", "Y":
		s.Quitting = true
		return tea.Sequence(ShutdownCmd(deps), tea.Quit), true
	case "n", "N", "esc", "q", "Q":
		s.Session = s.Previous
		return nil, true
	}
	return nil, true
}

func handleDeleteClipView(s *state.ModelState, msg tea.KeyMsg, deps Deps) (tea.Cmd, bool) {
	switch msg.String() {
	case "y", "Y":
		s.Session = state.RollView
		item, ok := s.RollList.SelectedItem().(*presenter.ClipItem)
		if !ok {
			return nil, true
		}
		return DeleteClipCmd(deps, item.ID), true
	case "n", "N", "esc", "q", "Q":
		s.Session = state.RollView
		return nil, true
	}
	return nil, true
}

func handleFeedViewIntent(s *state.ModelState, in intent.Intent, deps Deps) (tea.Cmd, bool) {
	switch in.Type {
	case intent.Refresh:
		s.Feed.Loading = true
		return RefreshFeedCmd(deps), true
	case intent.Up, intent.Down, intent.Play:
		if len(s.Feed.Videos) == 0 || deps.Pager == nil {
			return nil, true
		}
		switch in.Type {
		case intent.Up:
			return pageCmd(deps, deps.Pager.Prev), true
		case intent.Down:
			return pageCmd(deps, deps.Pager.Next), true
		default:
			return pageCmd(deps, replay(deps)), true
		}
	}
	return nil, false
}

func handleCameraViewIntent(s *state.ModelState, in intent.Intent, deps Deps) (tea.Cmd, bool) {
	busy := s.Recording.State.Busy()
	switch in.Type {
	case intent.Record:
		if busy {
			return StopRecordingCmd(deps), true
		}
		if noCamera(s, deps) {
			s.StatusMessage = "No camera available"
			return nil, true
		}
		s.StatusMessage = ""
		return StartRecordingCmd(deps, RecordingOptions(s, deps)), true
	case intent.SwitchCamera:
		if busy {
			return nil, true
		}
		target := video.OtherFacing(s.Camera.Facing)
		cam, err := video.FindCamera(s.Cameras, target)
		if err != nil {
			s.StatusMessage = fmt.Sprintf("No %s camera", target)
			return nil, true
		}
		s.Camera.Device = cam.ID
		s.Camera.Facing = cam.Facing
		s.StatusMessage = fmt.Sprintf("Using the %s camera", cam.Facing)
		return nil, true
	case intent.ToggleDuration:
		if busy {
			return nil, true
		}
		if s.Camera.Duration == video.LongDuration {
			s.Camera.Duration = video.ShortDuration
		} else {
			s.Camera.Duration = video.LongDuration
		}
		savePreference(s, deps, func(p Preferences) error { return p.SetDuration(s.Camera.Duration) })
		return nil, true
	case intent.CycleQuality:
		if busy {
			return nil, true
		}
		s.Camera.Quality = s.Camera.Quality.Next()
		savePreference(s, deps, func(p Preferences) error { return p.SetQuality(s.Camera.Quality) })
		return nil, true
	case intent.ToggleSound:
		if busy {
			return nil, true
		}
		s.Camera.Audio = !s.Camera.Audio
		savePreference(s, deps, func(p Preferences) error { return p.SetAudio(s.Camera.Audio) })
		return nil, true
	}
	return nil, false
}

func savePreference(s *state.ModelState, deps Deps, save func(Preferences) error) {
	if deps.Prefs == nil {
		return
	}
	if err := save(deps.Prefs); err != nil {
		s.StatusMessage = fmt.Sprintf("Failed to save settings: %v", err)
	}
}

// noCamera reports whether listing found nothing and none is configured.
func noCamera(s *state.ModelState, deps Deps) bool {
	return s.CamerasListed && len(s.Cameras) == 0 && deps.Camera == ""
}

// RecordingOptions builds controller options from the camera tab state.
func RecordingOptions(s *state.ModelState, deps Deps) recording.Options {
	cam := s.Camera.Device
	if cam == "" {
		cam = deps.Camera
	}
	return recording.Options{
		Camera:    cam,
		Quality:   s.Camera.Quality,
		Audio:     s.Camera.Audio,
		Duration:  s.Camera.Duration,
		OutputDir: deps.OutputDir,
	}
}

func handleRollViewIntent(s *state.ModelState, in intent.Intent, deps Deps) (tea.Cmd, bool) {
	switch in.Type {
	case intent.Refresh:
		return LoadClipsCmd(deps, true), true
	case intent.Play:
		item, ok := s.RollList.SelectedItem().(*presenter.ClipItem)
		if !ok || deps.OpenFile == nil {
			return nil, true
		}
		if err := deps.OpenFile(item.Path); err != nil {
			s.StatusMessage = fmt.Sprintf("Failed to open clip: %v", err)
		}
		return nil, true
	case intent.Delete:
		if _, ok := s.RollList.SelectedItem().(*presenter.ClipItem); ok {
			s.Previous = s.Session
			s.Session = state.DeleteClipView
		}
		return nil, true
	}
	return nil, false
}

// HandleWindowSize records the window size and resizes lists.
func HandleWindowSize(s *state.ModelState, msg tea.WindowSizeMsg) {
	s.Width = msg.Width
	s.Height = msg.Height
	UpdateListSizes(s)
}

// HandleFeedStateMsg applies a feed snapshot. A changed video list resets
// the pager; a failed refresh keeps the current page playing.
func HandleFeedStateMsg(s *state.ModelState, msg FeedStateMsg, deps Deps) tea.Cmd {
	prev := s.Feed.Videos
	s.Feed = msg.State
	if sameVideos(prev, msg.State.Videos) {
		return nil
	}

	presenter.ApplyVideoList(&s.VideoList, msg.State.Videos, 0)
	s.Page = state.PageView{}
	UpdateListSizes(s)
	return ResetPagerCmd(deps, msg.State.Videos, feedVisible(s))
}

func feedVisible(s *state.ModelState) bool {
	if s.Session == state.FeedView {
		return true
	}
	return s.Session == state.QuitView && s.Previous == state.FeedView
}

func sameVideos(a, b []video.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HandlePageMsg records the visible page.
func HandlePageMsg(s *state.ModelState, msg PageMsg) {
	s.Page = state.PageView{Index: msg.Index, State: msg.State, Err: msg.Err}
	if msg.Index >= 0 && msg.Index < len(s.VideoList.Items()) {
		s.VideoList.Select(msg.Index)
	}
	if msg.Err != nil && !errors.Is(msg.Err, playback.ErrUnplayable) {
		s.StatusMessage = fmt.Sprintf("Playback failed: %v", msg.Err)
	}
}

// HandleRecordResultMsg surfaces start/stop failures.
func HandleRecordResultMsg(s *state.ModelState, msg RecordResultMsg) {
	if msg.Err == nil || errors.Is(msg.Err, recording.ErrNotRecording) {
		return
	}
	s.Err = msg.Err
	s.StatusMessage = cameraErrorMessage(msg.Err)
}

// HandleRecordingStatusMsg applies a controller status. Hardware errors
// and saved clips are surfaced in the status line.
func HandleRecordingStatusMsg(s *state.ModelState, msg RecordingStatusMsg, deps Deps) tea.Cmd {
	prev := s.Recording
	st := msg.Status
	s.Recording = st

	var cmds []tea.Cmd
	if st.Err != nil && (prev.Err == nil || prev.Err.Error() != st.Err.Error()) {
		s.Err = st.Err
		s.StatusMessage = cameraErrorMessage(st.Err)
	}
	if st.LastClip != nil && (prev.LastClip == nil || prev.LastClip.ID != st.LastClip.ID) {
		if st.Err == nil {
			s.StatusMessage = "Saved " + st.LastClip.Name()
		}
		if s.Session == state.RollView {
			cmds = append(cmds, LoadClipsCmd(deps, false))
		}
	}
	if st.State == recording.StateRecording && prev.State != recording.StateRecording {
		cmds = append(cmds, recordingTickCmd())
	}
	return tea.Batch(cmds...)
}

// HandleRecordingTickMsg keeps the elapsed time ticking while recording.
func HandleRecordingTickMsg(s *state.ModelState) tea.Cmd {
	if s.Recording.State != recording.StateRecording {
		return nil
	}
	return recordingTickCmd()
}

// HandleCamerasListedMsg stores the detected cameras and keeps the current
// choice if it is still present. Otherwise the configured device wins,
// then the back camera, then whatever was found first.
func HandleCamerasListedMsg(s *state.ModelState, msg CamerasListedMsg, deps Deps) {
	if msg.Err != nil {
		s.StatusMessage = fmt.Sprintf("Camera detection failed: %v", msg.Err)
		return
	}
	s.Cameras = msg.Cameras
	s.CamerasListed = true

	pick := func(c video.Camera) {
		s.Camera.Device = c.ID
		s.Camera.Facing = c.Facing
	}
	for _, want := range []string{s.Camera.Device, deps.Camera} {
		if want == "" {
			continue
		}
		if i := slices.IndexFunc(msg.Cameras, func(c video.Camera) bool { return c.ID == want }); i >= 0 {
			pick(msg.Cameras[i])
			return
		}
	}
	s.Camera.Device, s.Camera.Facing = "", ""
	if deps.Camera != "" {
		return
	}
	if back, err := video.FindCamera(msg.Cameras, video.FacingBack); err == nil {
		pick(back)
	} else if len(msg.Cameras) > 0 {
		pick(msg.Cameras[0])
	}
}

// HandleClipsLoadedMsg applies a camera roll listing.
func HandleClipsLoadedMsg(s *state.ModelState, msg ClipsLoadedMsg) {
	if msg.Err != nil {
		s.StatusMessage = fmt.Sprintf("Camera roll: %v", msg.Err)
		return
	}
	s.Clips = msg.Clips
	presenter.ApplyClipList(&s.RollList, msg.Clips)
	UpdateListSizes(s)
	if msg.Deleted {
		s.StatusMessage = "Clip deleted"
	}
}

func cameraErrorMessage(err error) string {
	var hw *recording.HardwareError
	if errors.As(err, &hw) {
		return fmt.Sprintf("Camera error: %v", hw)
	}
	return fmt.Sprintf("Recording failed: %v", err)
}
