package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tesso57/jelly/internal/application/playback"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/application/usecase"
	"github.com/tesso57/jelly/internal/domain/video"
	"github.com/tesso57/jelly/internal/infrastructure/capture"
	"github.com/tesso57/jelly/internal/infrastructure/feed"
	"github.com/tesso57/jelly/internal/infrastructure/library"
	"github.com/tesso57/jelly/internal/infrastructure/logging"
	"github.com/tesso57/jelly/internal/infrastructure/player"
	"github.com/tesso57/jelly/internal/presentation/tui"
	"github.com/tesso57/jelly/internal/presentation/tui/update"
)

// TUICmd runs the terminal UI.
type TUICmd struct{}

// Run wires the feed, playback, recorder and camera roll into the UI.
func (c *TUICmd) Run(app *App) error {
	closeLog, err := app.configureLogging(nil)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := app.Config.Settings
	src, err := feed.NewSource(cfg.Feed, logging.WithComponent("feed"))
	if err != nil {
		return err
	}
	holder := usecase.NewFeedState(src, logging.WithComponent("feed_state"))
	defer holder.Close()
	feedCh, cancelFeed := holder.Subscribe()
	defer cancelFeed()

	pager := playback.NewPager(
		player.NewProcessFactory(cfg.Player, logging.WithComponent("player")),
		logging.WithComponent("playback"),
	)
	defer func() { _ = pager.Close() }()

	lib, err := library.New(cfg.LibraryFile)
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	ctrl := newController(cfg, lib)
	defer func() { _ = ctrl.Close(context.Background()) }()
	recCh, cancelRec := ctrl.Subscribe()
	defer cancelRec()

	roll := usecase.NewCameraRollService(lib, cfg.Recorder.OutputDir)
	roll.Recording = ctrl.ActivePath

	model := tui.NewModel(cfg, update.Deps{
		Ctx:       app.Ctx,
		Feed:      holder,
		Pager:     pager,
		Recorder:  ctrl,
		Roll:      roll,
		Prefs:     app.Config,
		Cameras:   capture.ListCameras,
		Camera:    cfg.Recorder.VideoDevice,
		OutputDir: cfg.Recorder.OutputDir,
	}, tui.Channels{Feed: feedCh, Recording: recCh})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(app.Ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func newController(cfg settings.Settings, store recording.ClipStore) *recording.Controller {
	logger := logging.WithComponent("capture")
	return recording.NewController(func() recording.Device {
		return capture.NewFFmpegDevice(cfg.Recorder, logger)
	}, store, logging.WithComponent("recording"))
}

// ScrapeCmd fetches the feed once and prints each video URL.
type ScrapeCmd struct{}

// Run performs a single fetch.
func (c *ScrapeCmd) Run(app *App) error {
	closeLog, err := app.configureLogging(app.ErrOut)
	if err != nil {
		return err
	}
	defer closeLog()

	src, err := feed.NewSource(app.Config.Settings.Feed, logging.WithComponent("feed"))
	if err != nil {
		return err
	}
	items, err := src.FetchAll(app.Ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Fprintln(app.Out, item.VideoURL)
	}
	return nil
}

// RecordCmd records one clip without the UI.
type RecordCmd struct {
	Duration time.Duration `help:"Clip length (15s or 60s). Defaults to the configured length."`
	Quality  string        `help:"Quality tier (low, medium, high). Defaults to the configured tier."`
	Mute     bool          `help:"Record without sound."`
	Camera   string        `help:"Camera to use: back, front or a device path. Defaults to the configured or back camera."`
}

func (c *RecordCmd) options(cfg settings.Settings) (recording.Options, error) {
	opts := recording.Options{
		Camera:    cfg.Recorder.VideoDevice,
		Quality:   video.QualityMedium,
		Audio:     cfg.Recorder.Audio && !c.Mute,
		Duration:  cfg.RecordDuration(),
		OutputDir: cfg.Recorder.OutputDir,
	}
	if c.Camera != "" {
		opts.Camera = c.Camera
	}
	tier := cfg.Recorder.Quality
	if strings.TrimSpace(c.Quality) != "" {
		tier = c.Quality
	}
	q, err := video.ParseQuality(tier)
	if err != nil {
		return recording.Options{}, err
	}
	opts.Quality = q
	if c.Duration != 0 {
		if !video.ValidDuration(c.Duration) {
			return recording.Options{}, fmt.Errorf("unsupported duration %s (expected 15s or 60s)", c.Duration)
		}
		opts.Duration = c.Duration
	}
	return opts, nil
}

// Run records until the duration elapses or the process is interrupted.
func (c *RecordCmd) Run(app *App) error {
	closeLog, err := app.configureLogging(app.ErrOut)
	if err != nil {
		return err
	}
	defer closeLog()

	opts, err := c.options(app.Config.Settings)
	if err != nil {
		return err
	}
	if opts.Camera, err = capture.ResolveCamera(opts.Camera); err != nil {
		return err
	}
	lib, err := library.New(app.Config.Settings.LibraryFile)
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	ctrl := newController(app.Config.Settings, lib)
	defer func() { _ = ctrl.Close(context.Background()) }()

	// Interrupts end the recording through Stop below.
	if err := ctrl.Start(context.WithoutCancel(app.Ctx), opts); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-app.Ctx.Done():
		if err := ctrl.Stop(context.Background()); err != nil && !errors.Is(err, recording.ErrNotRecording) {
			return err
		}
		<-done
	}

	st := ctrl.Status()
	if st.Err != nil {
		return st.Err
	}
	if st.LastClip == nil {
		return errInterrupted
	}
	fmt.Fprintln(app.Out, st.LastClip.Path)
	return nil
}

// RollCmd prints the camera roll as JSON.
type RollCmd struct {
	Rescan bool `help:"Index clips found in the output directory first." default:"true" negatable:""`
}

// Run lists the library.
func (c *RollCmd) Run(app *App) error {
	closeLog, err := app.configureLogging(app.ErrOut)
	if err != nil {
		return err
	}
	defer closeLog()

	lib, err := library.New(app.Config.Settings.LibraryFile)
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	roll := usecase.NewCameraRollService(lib, app.Config.Settings.Recorder.OutputDir)
	list := roll.List
	if c.Rescan {
		list = roll.Rescan
	}
	clips, err := list()
	if err != nil {
		return err
	}
	if clips == nil {
		clips = []video.Clip{}
	}
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(clips)
}
