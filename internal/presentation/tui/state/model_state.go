package state

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/tesso57/jelly/internal/application/playback"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/domain/video"
)

// PageView is what the UI knows about the visible playback page.
type PageView struct {
	Index int
	State playback.State
	Err   error
}

// CameraOptions are the user's current recording choices. Device is empty
// until cameras have been listed.
type CameraOptions struct {
	Device   string
	Facing   video.Facing
	Quality  video.Quality
	Audio    bool
	Duration time.Duration
}

// ModelState holds the presentation state for the TUI.
type ModelState struct {
	Session       Session
	Previous      Session
	VideoList     list.Model
	RollList      list.Model
	Help          help.Model
	Spinner       spinner.Model
	Keys          KeyMap
	Width         int
	Height        int
	Feed          video.FeedState
	Page          PageView
	Camera        CameraOptions
	Cameras       []video.Camera
	CamerasListed bool
	Recording     recording.Status
	Clips         []video.Clip
	Err           error
	StatusMessage string
	Quitting      bool
}
