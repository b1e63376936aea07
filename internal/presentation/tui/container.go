// Package tui provides the main user interface model and view components.
package tui

import (
	"fmt"
	"strings"

	"github.com/tesso57/jelly/internal/application/playback"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/presentation/tui/components/header"
	main_view "github.com/tesso57/jelly/internal/presentation/tui/components/main"
	"github.com/tesso57/jelly/internal/presentation/tui/components/modal"
	"github.com/tesso57/jelly/internal/presentation/tui/components/sidebar"
	"github.com/tesso57/jelly/internal/presentation/tui/metrics"
	"github.com/tesso57/jelly/internal/presentation/tui/presenter"
	"github.com/tesso57/jelly/internal/presentation/tui/state"
	"github.com/tesso57/jelly/internal/presentation/tui/update"
	"github.com/tesso57/jelly/internal/presentation/tui/view"
	listview "github.com/tesso57/jelly/internal/presentation/tui/view/list"
)

func (m *Model) buildProps() view.Props {
	return view.Props{
		Header:  m.buildHeaderProps(),
		Sidebar: m.buildSidebarProps(),
		Main:    m.buildMainProps(),
		Modal:   m.buildModalProps(),
		Footer:  m.buildFooterProps(),
	}
}

func (m *Model) buildHeaderProps() header.Props {
	tabs := make([]string, len(state.Tabs))
	active := -1
	current := m.state.Session
	if current == state.QuitView || current == state.DeleteClipView {
		current = m.state.Previous
	}
	for i, tab := range state.Tabs {
		tabs[i] = fmt.Sprintf("%d %s", i+1, state.TabTitle(tab))
		if tab == current {
			active = i
		}
	}

	var status string
	if m.state.Recording.State == recording.StateRecording {
		status = "● REC"
	}
	return header.Props{
		Tabs:   tabs,
		Active: active,
		Accent: m.settings.Theme.Accent,
		Muted:  m.settings.Theme.Muted,
		Status: status,
	}
}

func (m *Model) buildSidebarProps() sidebar.Props {
	return sidebar.Props{
		Visible: m.state.Session == state.FeedView,
		View:    m.state.VideoList.View(),
		Width:   m.state.VideoList.Width(),
		Height:  m.state.VideoList.Height(),
		Title:   "Videos",
		Accent:  m.settings.Theme.Accent,
	}
}

func (m *Model) buildMainProps() main_view.Props {
	width, height := update.MainSize(m.state)
	props := main_view.Props{
		Width:       width,
		Height:      height,
		BannerColor: m.settings.Theme.Error,
	}

	switch m.state.Session {
	case state.FeedView:
		if m.state.Feed.HasError() {
			props.Banner = m.state.Feed.Err
			return props
		}
		props.Header = m.pageHeader(width - metrics.HeaderWidthPadding)
		props.Body = m.feedBody()
	case state.CameraView:
		props.Body = m.cameraBody()
	case state.RollView:
		if len(m.state.RollList.Items()) == 0 {
			props.Body = "\n  No clips yet. Record one on the Camera tab."
		} else {
			props.Body = m.state.RollList.View()
		}
	}
	return props
}

func (m *Model) pageHeader(width int) string {
	videos := m.state.Feed.Videos
	idx := m.state.Page.Index
	if idx < 0 || idx >= len(videos) {
		return ""
	}
	v := videos[idx]
	title := listview.FitLine(v.DisplayTitle(), width)
	meta := fmt.Sprintf("%d/%d", idx+1, len(videos))
	if v.Author != "" {
		meta += " · " + v.Author
	}
	return title + "\n" + listview.FitLine(meta, width)
}

func (m *Model) feedBody() string {
	if len(m.state.Feed.Videos) == 0 {
		if m.state.Feed.Loading {
			return fmt.Sprintf("\n\n   %s Loading videos...", m.state.Spinner.View())
		}
		return "\n\n   No videos yet. Press r to refresh."
	}

	page := m.state.Page
	switch page.State {
	case playback.StatePlaying:
		return "\n▶ Playing"
	case playback.StatePlaceholder:
		return "\nThis video is unavailable."
	case playback.StateFailed:
		return fmt.Sprintf("\nPlayback failed: %v", page.Err)
	case playback.StateReleased:
		return "\nStopped. Press enter to play."
	default:
		return fmt.Sprintf("\n%s Starting player...", m.state.Spinner.View())
	}
}

func (m *Model) cameraBody() string {
	st := m.state.Recording
	opts := m.state.Camera
	profile := opts.Quality.Profile()

	sound := "on"
	if !opts.Audio {
		sound = "muted"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nState     %s\n", st.State)
	switch {
	case opts.Device != "" && opts.Facing != "":
		fmt.Fprintf(&b, "Camera    %s (%s)\n", opts.Facing, opts.Device)
	case opts.Device != "":
		fmt.Fprintf(&b, "Camera    %s\n", opts.Device)
	case m.deps.Camera != "":
		fmt.Fprintf(&b, "Camera    %s\n", m.deps.Camera)
	case m.state.CamerasListed:
		b.WriteString("Camera    No camera available\n")
	}
	fmt.Fprintf(&b, "Duration  %s\n", presenter.FormatDuration(opts.Duration))
	fmt.Fprintf(&b, "Quality   %s (%dx%d)\n", profile.Label, profile.Width, profile.Height)
	fmt.Fprintf(&b, "Sound     %s\n", sound)

	if st.State == recording.StateRecording {
		elapsed := min(m.now().Sub(st.StartedAt), st.Options.Duration)
		fmt.Fprintf(&b, "\n● REC %s / %s\n",
			presenter.FormatDuration(elapsed),
			presenter.FormatDuration(st.Options.Duration))
	}
	if st.Err != nil {
		fmt.Fprintf(&b, "\nError: %v\n", st.Err)
	}
	if st.LastClip != nil {
		fmt.Fprintf(&b, "\nLast clip %s\n", st.LastClip.Path)
	}
	return b.String()
}

func (m *Model) buildModalProps() modal.Props {
	switch {
	case m.state.Session == state.QuitView:
		body := "Are you sure you want to quit?\n\n(y/n)"
		switch st := m.state.Recording.State; {
		case st == recording.StateRecording:
			body = "A recording is in progress.\nQuit and save it?\n\n(y/n)"
		case st.Busy():
			body = "The camera is starting.\nQuit anyway?\n\n(y/n)"
		}
		return modal.Props{
			Visible: true,
			Kind:    modal.Quit,
			Body:    body,
			Width:   m.state.Width,
			Height:  m.state.Height,
			Accent:  m.settings.Theme.Accent,
		}
	case m.state.Session == state.DeleteClipView:
		name := "this clip"
		if item, ok := m.state.RollList.SelectedItem().(*presenter.ClipItem); ok {
			name = item.Name
		}
		return modal.Props{
			Visible: true,
			Kind:    modal.DeleteClip,
			Body:    fmt.Sprintf("Delete clip?\n\n%s\n\n(y/n)", name),
			Width:   m.state.Width,
			Height:  m.state.Height,
			Accent:  m.settings.Theme.Accent,
		}
	case m.state.Help.ShowAll:
		return modal.Props{
			Visible: true,
			Kind:    modal.Help,
			Body:    m.state.Help.View(&m.state.Keys),
			Width:   m.state.Width,
			Height:  m.state.Height,
		}
	}
	return modal.Props{Visible: false}
}

func (m *Model) buildFooterProps() string {
	helpText := m.state.Help.View(&m.state.Keys)
	return state.FooterText(m.state.Session, m.state.StatusMessage, helpText)
}
