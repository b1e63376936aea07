package recording

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesso57/jelly/internal/domain/video"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDevice struct {
	mu        sync.Mutex
	calls     []string
	cfg       CaptureConfig
	openErr   error
	configErr error
	startErr  error
	stopErr   error
	closeErr  error

	// startGate, when set, holds Start until it is closed or ctx ends.
	startGate chan struct{}
	startCtx  context.Context
}

func (d *fakeDevice) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDevice) Open(_ context.Context, camera string) error {
	d.record("open:" + camera)
	return d.openErr
}

func (d *fakeDevice) Configure(_ context.Context, cfg CaptureConfig) error {
	d.record("configure")
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	if d.configErr != nil {
		return d.configErr
	}
	return os.WriteFile(cfg.Path, []byte("mp4"), 0o600)
}

func (d *fakeDevice) Start(ctx context.Context) error {
	d.record("start")
	d.mu.Lock()
	d.startCtx = ctx
	gate := d.startGate
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.startErr
}

func (d *fakeDevice) Stop(context.Context) error {
	d.record("stop")
	return d.stopErr
}

func (d *fakeDevice) Close() error {
	d.record("close")
	return d.closeErr
}

type stubClipStore struct {
	mock.Mock
}

func (s *stubClipStore) Upsert(clip video.Clip) error {
	args := s.Called(clip)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestController(t *testing.T, dev *fakeDevice, store ClipStore) *Controller {
	t.Helper()
	c := NewController(func() Device { return dev }, store, zerolog.Nop())
	c.now = func() time.Time { return fixedNow }
	c.newID = func() string { return "clip-1" }
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func testOptions(t *testing.T) Options {
	return Options{
		Camera:    "/dev/video0",
		Quality:   video.QualityHigh,
		Audio:     true,
		Duration:  video.ShortDuration,
		OutputDir: t.TempDir(),
	}
}

func TestController_StartAndStop(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.AnythingOfType("video.Clip")).Return(nil)
	c := newTestController(t, dev, store)
	opts := testOptions(t)

	require.NoError(t, c.Start(context.Background(), opts))
	st := c.Status()
	assert.Equal(t, StateRecording, st.State)
	assert.Equal(t, fixedNow, st.StartedAt)
	assert.Nil(t, st.Err)

	assert.Equal(t, video.QualityHigh.Profile(), dev.cfg.Profile)
	assert.Equal(t, filepath.Join(opts.OutputDir, "VID_HIGH_AUDIO_20260506_070809.mp4"), dev.cfg.Path)

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, []string{"open:/dev/video0", "configure", "start", "stop", "close"}, dev.Calls())

	st = c.Status()
	assert.Equal(t, StateIdle, st.State)
	require.NotNil(t, st.LastClip)
	assert.Equal(t, "clip-1", st.LastClip.ID)
	assert.Equal(t, dev.cfg.Path, st.LastClip.Path)
	assert.Equal(t, int64(3), st.LastClip.Size)
	assert.True(t, st.LastClip.Audio)
	store.AssertNumberOfCalls(t, "Upsert", 1)

	assert.ErrorIs(t, c.Stop(context.Background()), ErrNotRecording)
}

func TestController_AutoStop(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(nil)
	c := newTestController(t, dev, store)
	c.afterFunc = func(_ time.Duration, f func()) *time.Timer {
		return time.AfterFunc(10*time.Millisecond, f)
	}

	updates, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	c.Wait()

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	require.NotNil(t, st.LastClip)
	assert.Equal(t, video.ShortDuration, st.LastClip.Duration)
	store.AssertNumberOfCalls(t, "Upsert", 1)

	latest := <-updates
	assert.Equal(t, StateIdle, latest.State)
}

func TestController_BusyWhileRecording(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(nil)
	c := newTestController(t, dev, store)

	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	assert.ErrorIs(t, c.Start(context.Background(), testOptions(t)), ErrBusy)
	require.NoError(t, c.Stop(context.Background()))
}

func TestController_RejectsBadOptions(t *testing.T) {
	c := newTestController(t, &fakeDevice{}, nil)

	opts := testOptions(t)
	opts.Duration = 30 * time.Second
	assert.Error(t, c.Start(context.Background(), opts))

	opts = testOptions(t)
	opts.Quality = "ULTRA"
	assert.Error(t, c.Start(context.Background(), opts))

	assert.Equal(t, StateIdle, c.Status().State)
}

func TestController_HardwareErrorsSurface(t *testing.T) {
	boom := errors.New("device busy")
	tests := []struct {
		name      string
		dev       *fakeDevice
		op        string
		wantCalls []string
	}{
		{"open", &fakeDevice{openErr: boom}, "open", []string{"open:/dev/video0", "close"}},
		{"configure", &fakeDevice{configErr: boom}, "configure", []string{"open:/dev/video0", "configure", "close"}},
		{"start", &fakeDevice{startErr: boom}, "start", []string{"open:/dev/video0", "configure", "start", "close"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, tt.dev, nil)

			err := c.Start(context.Background(), testOptions(t))
			var hw *HardwareError
			require.ErrorAs(t, err, &hw)
			assert.Equal(t, tt.op, hw.Op)
			assert.ErrorIs(t, err, boom)

			st := c.Status()
			assert.Equal(t, StateError, st.State)
			assert.ErrorIs(t, st.Err, boom)
			assert.Equal(t, tt.wantCalls, tt.dev.Calls())
		})
	}
}

func TestController_StopFailureKeepsFootage(t *testing.T) {
	boom := errors.New("encoder crashed")
	dev := &fakeDevice{stopErr: boom}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(nil)
	c := newTestController(t, dev, store)

	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	err := c.Stop(context.Background())
	var hw *HardwareError
	require.ErrorAs(t, err, &hw)
	assert.Equal(t, "stop", hw.Op)

	assert.Equal(t, []string{"open:/dev/video0", "configure", "start", "stop", "close"}, dev.Calls())
	st := c.Status()
	assert.Equal(t, StateError, st.State)
	require.NotNil(t, st.LastClip)
	assert.FileExists(t, st.LastClip.Path)
	store.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestController_FailedStartRemovesFile(t *testing.T) {
	dev := &fakeDevice{startErr: errors.New("device busy")}
	c := newTestController(t, dev, nil)
	opts := testOptions(t)

	require.Error(t, c.Start(context.Background(), opts))
	assert.NoFileExists(t, dev.cfg.Path)
}

func TestController_OutlivesCallerContext(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(nil)
	c := newTestController(t, dev, store)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, testOptions(t)))
	cancel()

	assert.Equal(t, StateRecording, c.Status().State)
	dev.mu.Lock()
	devCtx := dev.startCtx
	dev.mu.Unlock()
	assert.NoError(t, devCtx.Err())
	assert.NotContains(t, dev.Calls(), "stop")

	require.NoError(t, c.Stop(context.Background()))
	require.NotNil(t, c.Status().LastClip)
}

func TestController_SameSecondClipsGetDistinctFiles(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(nil)
	c := newTestController(t, dev, store)
	opts := testOptions(t)

	require.NoError(t, c.Start(context.Background(), opts))
	require.NoError(t, c.Stop(context.Background()))
	first := c.Status().LastClip.Path

	require.NoError(t, c.Start(context.Background(), opts))
	require.NoError(t, c.Stop(context.Background()))
	second := c.Status().LastClip.Path

	assert.Equal(t, filepath.Join(opts.OutputDir, "VID_HIGH_AUDIO_20260506_070809.mp4"), first)
	assert.Equal(t, filepath.Join(opts.OutputDir, "VID_HIGH_AUDIO_20260506_070809_2.mp4"), second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestController_ActivePath(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(nil)
	c := newTestController(t, dev, store)
	assert.Empty(t, c.ActivePath())

	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	assert.Equal(t, dev.cfg.Path, c.ActivePath())
	require.NoError(t, c.Stop(context.Background()))
	assert.Empty(t, c.ActivePath())
}

func TestController_StartAfterErrorResets(t *testing.T) {
	dev := &fakeDevice{openErr: errors.New("no camera")}
	c := newTestController(t, dev, nil)
	require.Error(t, c.Start(context.Background(), testOptions(t)))
	require.Equal(t, StateError, c.Status().State)

	dev.openErr = nil
	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	st := c.Status()
	assert.Equal(t, StateRecording, st.State)
	assert.Nil(t, st.Err)
	require.NoError(t, c.Stop(context.Background()))
}

func TestController_LibraryFailureSurfaces(t *testing.T) {
	dev := &fakeDevice{}
	store := &stubClipStore{}
	store.On("Upsert", mock.Anything).Return(errors.New("disk full"))
	c := newTestController(t, dev, store)

	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	err := c.Stop(context.Background())
	assert.ErrorContains(t, err, "disk full")

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Error(t, st.Err)
	require.NotNil(t, st.LastClip)
}

func TestController_CloseStopsRecording(t *testing.T) {
	dev := &fakeDevice{}
	c := NewController(func() Device { return dev }, nil, zerolog.Nop())
	updates, _ := c.Subscribe()

	require.NoError(t, c.Start(context.Background(), testOptions(t)))
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))

	assert.Contains(t, dev.Calls(), "stop")
	assert.Equal(t, StateIdle, c.Status().State)
	for range updates {
	}
	assert.Error(t, c.Start(context.Background(), testOptions(t)))
}

func TestController_CloseAbortsStartInFlight(t *testing.T) {
	dev := &fakeDevice{startGate: make(chan struct{})}
	c := NewController(func() Device { return dev }, nil, zerolog.Nop())
	opts := testOptions(t)

	started := make(chan error, 1)
	go func() { started <- c.Start(context.Background(), opts) }()
	require.Eventually(t, func() bool {
		return slices.Contains(dev.Calls(), "start")
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close(context.Background()))

	// Close only returns once Start has given up and released the device.
	assert.Equal(t, []string{"open:/dev/video0", "configure", "start", "close"}, dev.Calls())
	select {
	case err := <-started:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
	}
	assert.Equal(t, StateError, c.Status().State)
	assert.Empty(t, c.ActivePath())
	assert.NoFileExists(t, dev.cfg.Path)
}

func TestController_CloseWinsRaceWithStart(t *testing.T) {
	dev := &fakeDevice{startGate: make(chan struct{})}
	c := NewController(func() Device { return dev }, nil, zerolog.Nop())

	started := make(chan error, 1)
	go func() { started <- c.Start(context.Background(), testOptions(t)) }()
	require.Eventually(t, func() bool {
		return slices.Contains(dev.Calls(), "start")
	}, 5*time.Second, 5*time.Millisecond)

	// The device comes up just as Close begins.
	close(dev.startGate)
	require.NoError(t, c.Close(context.Background()))
	<-started

	st := c.Status()
	assert.NotEqual(t, StateRecording, st.State)
	assert.Contains(t, dev.Calls(), "close")
}

func TestHardwareError_Message(t *testing.T) {
	err := &HardwareError{Op: "open", Err: errors.New("EBUSY")}
	assert.Equal(t, "camera open: EBUSY", err.Error())
}
