package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/presentation/tui/state"
	"github.com/tesso57/jelly/internal/presentation/tui/update"
)

func TestQuitDialog(t *testing.T) {
	m, _ := newTestModel(testSettings(), nil)
	loadVideos(m, sampleVideos())

	// 'q' asks first.
	cmd := press(m, "q")
	assert.Equal(t, state.QuitView, m.state.Session)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Are you sure you want to quit?")

	press(m, "n")
	assert.Equal(t, state.FeedView, m.state.Session)

	press(m, "q")
	press(m, "esc")
	assert.Equal(t, state.FeedView, m.state.Session)

	// Cancelling returns to the tab the dialog was opened from.
	drive(m, press(m, "2"))
	press(m, "q")
	assert.Equal(t, state.CameraView, m.state.Previous)
	press(m, "q")
	assert.Equal(t, state.CameraView, m.state.Session)

	press(m, "q")
	cmd = press(m, "y")
	require.NotNil(t, cmd)
	assert.True(t, m.state.Quitting)
	assert.Empty(t, m.View())
}

func TestQuitDialog_WarnsWhileRecording(t *testing.T) {
	m, _ := newTestModel(testSettings(), nil)
	m.Update(update.RecordingStatusMsg{Status: recording.Status{State: recording.StateRecording}})

	press(m, "q")
	assert.Contains(t, m.View(), "A recording is in progress.")
}

func TestQuitDialog_WhileCameraStarting(t *testing.T) {
	m, _ := newTestModel(testSettings(), nil)
	m.Update(update.RecordingStatusMsg{Status: recording.Status{State: recording.StateConfiguring}})

	press(m, "q")
	out := m.View()
	assert.Contains(t, out, "The camera is starting.")
	assert.NotContains(t, out, "Quit and save it?")
}

func TestShutdownReleasesPlayerAndStopsRecording(t *testing.T) {
	m, env := newTestModel(testSettings(), nil)
	loadVideos(m, sampleVideos())
	require.Equal(t, 1, env.players.live())

	env.recorder.On("Stop").Return(recording.ErrNotRecording).Once()
	msg := update.ShutdownCmd(m.deps)()

	shutdown, ok := msg.(update.ShutdownMsg)
	require.True(t, ok)
	assert.NoError(t, shutdown.Err)
	assert.Equal(t, 0, env.players.live())
	env.recorder.AssertExpectations(t)
}
