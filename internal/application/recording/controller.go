package recording

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/domain/video"
)

var (
	// ErrBusy is returned by Start while a session is in progress.
	ErrBusy = errors.New("recording already in progress")
	// ErrNotRecording is returned by Stop when nothing is being recorded.
	ErrNotRecording = errors.New("not recording")
)

// HardwareError wraps a capture device failure.
type HardwareError struct {
	Op  string
	Err error
}

func (e *HardwareError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

func (e *HardwareError) Unwrap() error { return e.Err }

// Options selects what to record.
type Options struct {
	Camera    string
	Quality   video.Quality
	Audio     bool
	Duration  time.Duration
	OutputDir string
}

// CaptureConfig is handed to Device.Configure. Duration bounds the capture
// on the device side in case the controller never gets to stop it.
type CaptureConfig struct {
	Quality  video.Quality
	Profile  video.Profile
	Audio    bool
	Duration time.Duration
	Path     string
}

// Device is a capture backend.
type Device interface {
	Open(ctx context.Context, camera string) error
	Configure(ctx context.Context, cfg CaptureConfig) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Close() error
}

// DeviceFactory returns a fresh device for each session.
type DeviceFactory func() Device

// ClipStore receives finished clips. Upsert replaces a row already indexed
// under the same path, such as one a library rescan picked up mid-recording.
type ClipStore interface {
	Upsert(clip video.Clip) error
}

// Status is a snapshot of the controller.
type Status struct {
	State     State
	Options   Options
	StartedAt time.Time
	// LastClip is the most recently saved clip, if any.
	LastClip *video.Clip
	// Err is the last surfaced failure, cleared by the next Start.
	Err error
}

// Session is one pass through the state machine with one device.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	opts      Options
	path      string
	device    Device
	state     State
	startedAt time.Time
	timer     *time.Timer
	started   bool

	teardownOnce sync.Once
	teardownErr  error
}

func (s *Session) fire(e Event) error {
	next, err := Transition(s.state, e)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// teardown stops capture if it started and always closes the device.
func (s *Session) teardown(ctx context.Context) error {
	s.teardownOnce.Do(func() {
		var errs []error
		if s.started {
			if err := s.device.Stop(ctx); err != nil {
				errs = append(errs, &HardwareError{Op: "stop", Err: err})
			}
		}
		if err := s.device.Close(); err != nil {
			errs = append(errs, &HardwareError{Op: "close", Err: err})
		}
		s.teardownErr = errors.Join(errs...)
	})
	return s.teardownErr
}

// Controller owns the recording session and publishes its status.
type Controller struct {
	newDevice DeviceFactory
	store     ClipStore
	logger    zerolog.Logger

	now       func() time.Time
	newID     func() string
	afterFunc func(time.Duration, func()) *time.Timer

	mu      sync.Mutex
	session *Session
	status  Status
	subs    map[int]chan Status
	nextSub int
	closed  bool
	wg      sync.WaitGroup
}

// NewController returns an idle controller. store may be nil.
func NewController(newDevice DeviceFactory, store ClipStore, logger zerolog.Logger) *Controller {
	return &Controller{
		newDevice: newDevice,
		store:     store,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		afterFunc: time.AfterFunc,
		subs:      make(map[int]chan Status),
	}
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Status {
	st := c.status
	if st.LastClip != nil {
		clip := *st.LastClip
		st.LastClip = &clip
	}
	return st
}

// Subscribe returns a channel carrying the latest status after each change.
func (c *Controller) Subscribe() (<-chan Status, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Status, 1)
	if c.closed {
		ch <- c.snapshotLocked()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Controller) publishLocked() {
	st := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (c *Controller) setStateLocked(s *Session) {
	c.status.State = s.state
	c.publishLocked()
}

// ActivePath returns the file the current session writes to, or "".
func (c *Controller) ActivePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.path
}

// clipPath picks a file name in dir that does not exist yet.
func clipPath(opts Options, t time.Time) (string, error) {
	for n := 1; n < 100; n++ {
		path := filepath.Join(opts.OutputDir, video.ClipFileNameSeq(opts.Quality, opts.Audio, t, n))
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("too many clips recorded at %s", t.Format(time.DateTime))
}

// Start opens, configures and starts the device, then schedules the
// automatic stop. It returns once recording has begun or failed.
//
// The session runs detached from ctx: cancelling it does not stop a
// recording, only Stop, the timer and Close do.
func (c *Controller) Start(ctx context.Context, opts Options) error {
	if !video.ValidDuration(opts.Duration) {
		return fmt.Errorf("unsupported duration %s", opts.Duration)
	}
	if _, err := video.ParseQuality(string(opts.Quality)); err != nil {
		return err
	}
	now := c.now()
	path, err := clipPath(opts, now)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("recording controller closed")
	}
	if c.session != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.status.State == StateError {
		if next, err := Transition(c.status.State, EventReset); err == nil {
			c.status.State = next
		}
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		ctx:       sctx,
		cancel:    cancel,
		opts:      opts,
		path:      path,
		device:    c.newDevice(),
		state:     c.status.State,
		startedAt: now,
	}
	if err := s.fire(EventStart); err != nil {
		c.mu.Unlock()
		cancel()
		return err
	}
	c.wg.Add(1)
	defer c.wg.Done()
	c.session = s
	c.status.Options = opts
	c.status.StartedAt = time.Time{}
	c.status.Err = nil
	c.setStateLocked(s)
	c.mu.Unlock()

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0750); err != nil {
			return c.fail(s, fmt.Errorf("create output dir: %w", err))
		}
	}

	if err := s.device.Open(s.ctx, opts.Camera); err != nil {
		return c.fail(s, &HardwareError{Op: "open", Err: err})
	}
	if err := c.advance(s, EventOpened); err != nil {
		return c.fail(s, err)
	}

	cfg := CaptureConfig{
		Quality:  opts.Quality,
		Profile:  opts.Quality.Profile(),
		Audio:    opts.Audio,
		Duration: opts.Duration,
		Path:     s.path,
	}
	if err := s.device.Configure(s.ctx, cfg); err != nil {
		return c.fail(s, &HardwareError{Op: "configure", Err: err})
	}
	if err := s.device.Start(s.ctx); err != nil {
		return c.fail(s, &HardwareError{Op: "start", Err: err})
	}

	c.mu.Lock()
	s.started = true
	if c.closed {
		c.mu.Unlock()
		return c.fail(s, errors.New("recording controller closed"))
	}
	if err := s.fire(EventConfigured); err != nil {
		c.mu.Unlock()
		return c.fail(s, err)
	}
	s.startedAt = c.now()
	c.status.StartedAt = s.startedAt
	c.wg.Add(1)
	s.timer = c.afterFunc(opts.Duration, func() {
		defer c.wg.Done()
		if err := c.finish(context.Background(), s, EventDurationElapsed); err != nil {
			c.logger.Error().Err(err).Msg("automatic stop failed")
		}
	})
	c.setStateLocked(s)
	c.mu.Unlock()

	c.logger.Info().
		Str("path", s.path).
		Str("quality", string(opts.Quality)).
		Bool("audio", opts.Audio).
		Dur("duration", opts.Duration).
		Msg("recording started")
	return nil
}

func (c *Controller) advance(s *Session, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := s.fire(e); err != nil {
		return err
	}
	c.setStateLocked(s)
	return nil
}

// fail tears the session down and surfaces err in the status. The output
// file is removed only if recording never began; footage captured before
// a failed stop stays on disk.
func (c *Controller) fail(s *Session, err error) error {
	if terr := s.teardown(context.WithoutCancel(s.ctx)); terr != nil && !errors.Is(err, terr) {
		err = errors.Join(err, terr)
	}
	s.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.state != StateRecording && s.state != StateStopping {
		_ = os.Remove(s.path)
	}
	_ = s.fire(EventFailed)
	if c.session == s {
		c.session = nil
	}
	c.status.Err = err
	c.setStateLocked(s)
	c.logger.Error().Err(err).Str("path", s.path).Msg("recording failed")
	return err
}

// Stop ends the current recording early and saves the clip.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return ErrNotRecording
	}
	return c.finish(ctx, s, EventStopRequested)
}

func (c *Controller) finish(ctx context.Context, s *Session, e Event) error {
	c.mu.Lock()
	if c.session != s || s.state != StateRecording {
		c.mu.Unlock()
		if e == EventStopRequested {
			return ErrNotRecording
		}
		return nil
	}
	if err := s.fire(e); err != nil {
		c.mu.Unlock()
		return err
	}
	if s.timer != nil && s.timer.Stop() {
		c.wg.Done()
	}
	c.setStateLocked(s)
	c.mu.Unlock()

	stopErr := s.teardown(ctx)
	s.cancel()

	elapsed := s.opts.Duration
	if e != EventDurationElapsed {
		elapsed = min(c.now().Sub(s.startedAt), s.opts.Duration)
	}
	clip := video.Clip{
		ID:         c.newID(),
		Path:       s.path,
		Quality:    s.opts.Quality,
		Audio:      s.opts.Audio,
		Duration:   elapsed.Round(time.Second),
		RecordedAt: s.startedAt,
	}
	if info, err := os.Stat(s.path); err == nil {
		clip.Size = info.Size()
	}
	if stopErr != nil {
		if clip.Size > 0 {
			c.keepClip(clip)
		}
		return c.fail(s, stopErr)
	}

	var saveErr error
	if c.store != nil {
		if err := c.store.Upsert(clip); err != nil {
			saveErr = fmt.Errorf("save clip: %w", err)
			c.logger.Error().Err(err).Str("path", clip.Path).Msg("failed to add clip to library")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := s.fire(EventStopped); err != nil {
		return err
	}
	c.session = nil
	c.status.LastClip = &clip
	c.status.Err = saveErr
	c.setStateLocked(s)
	c.logger.Info().Str("path", clip.Path).Str("reason", e.String()).Msg("recording saved")
	return saveErr
}

// keepClip indexes footage left behind by a capture that failed to stop
// cleanly, so it still shows up in the camera roll.
func (c *Controller) keepClip(clip video.Clip) {
	if c.store != nil {
		if err := c.store.Upsert(clip); err != nil {
			c.logger.Error().Err(err).Str("path", clip.Path).Msg("failed to add clip to library")
			return
		}
	}
	c.mu.Lock()
	c.status.LastClip = &clip
	c.mu.Unlock()
}

// Wait blocks until no Start or automatic stop is pending.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close saves an active recording, aborts one that is still starting and
// closes subscriber channels. It returns once no session is left.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.session
	c.mu.Unlock()

	var err error
	if s != nil {
		if ferr := c.finish(ctx, s, EventStopRequested); ferr != nil && !errors.Is(ferr, ErrNotRecording) {
			err = ferr
		}
		s.cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	return err
}
