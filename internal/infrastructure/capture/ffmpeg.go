package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/application/recording"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/domain/video"
	"github.com/tesso57/jelly/internal/infrastructure/proc"
)

// CommandContext builds the ffmpeg command. Tests swap it out.
var CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...) // #nosec G204
}

// startupWindow is how long Start watches for ffmpeg dying on bad input.
var startupWindow = 300 * time.Millisecond

const audioBitrate = "128k"

// FFmpegDevice implements recording.Device with one ffmpeg process.
type FFmpegDevice struct {
	Binary      string
	AudioDevice string
	Grace       time.Duration
	Logger      zerolog.Logger

	mu     sync.Mutex
	camera string
	cfg    *recording.CaptureConfig
	proc   *proc.Process
	stderr *bytes.Buffer
}

// NewFFmpegDevice returns a closed device for the configured recorder.
func NewFFmpegDevice(cfg settings.RecorderConfig, logger zerolog.Logger) *FFmpegDevice {
	bin := cfg.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegDevice{
		Binary:      bin,
		AudioDevice: cfg.AudioDevice,
		Grace:       proc.DefaultGrace,
		Logger:      logger,
	}
}

// Open selects the camera. An empty id picks the back camera.
func (d *FFmpegDevice) Open(_ context.Context, camera string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.camera != "" {
		return errors.New("device already open")
	}
	if camera == "" {
		cams, err := ListCameras()
		if err != nil {
			return err
		}
		back, err := video.FindCamera(cams, video.FacingBack)
		if err != nil {
			return err
		}
		camera = back.ID
	}
	if _, err := os.Stat(camera); err != nil {
		return fmt.Errorf("%s: %w", camera, err)
	}
	d.camera = camera
	return nil
}

// Configure sets the output file and encoding parameters.
func (d *FFmpegDevice) Configure(_ context.Context, cfg recording.CaptureConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.camera == "" {
		return errors.New("device not open")
	}
	if cfg.Path == "" {
		return errors.New("output path is required")
	}
	if cfg.Profile.Width <= 0 || cfg.Profile.Height <= 0 || cfg.Profile.FPS <= 0 {
		return fmt.Errorf("invalid capture profile %+v", cfg.Profile)
	}
	d.cfg = &cfg
	return nil
}

// Args returns the ffmpeg arguments for the current configuration.
func (d *FFmpegDevice) Args() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg == nil {
		return nil, errors.New("device not configured")
	}
	return BuildArgs(d.camera, d.AudioDevice, *d.cfg), nil
}

// BuildArgs renders an ffmpeg command line recording camera (and the ALSA
// device when audio is on) into an H.264/AAC MP4. ffmpeg refuses to
// overwrite an existing file and ends on its own after cfg.Duration.
func BuildArgs(camera, audioDevice string, cfg recording.CaptureConfig) []string {
	p := cfg.Profile
	fps := strconv.Itoa(p.FPS)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-n",
		"-f", "v4l2",
		"-framerate", fps,
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-i", camera,
	}
	if cfg.Audio {
		if audioDevice == "" {
			audioDevice = "default"
		}
		args = append(args, "-f", "alsa", "-i", audioDevice)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-b:v", strconv.Itoa(p.Bitrate),
		"-r", fps,
	)
	if cfg.Audio {
		args = append(args, "-c:a", "aac", "-b:a", audioBitrate)
	} else {
		args = append(args, "-an")
	}
	if cfg.Duration > 0 {
		args = append(args, "-t", strconv.FormatFloat(cfg.Duration.Seconds(), 'f', -1, 64))
	}
	return append(args, "-movflags", "+faststart", cfg.Path)
}

// Start launches ffmpeg. The process outlives ctx and only Stop or Close
// end it; ctx bounds the startup check alone.
func (d *FFmpegDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg == nil {
		return errors.New("device not configured")
	}
	if d.proc != nil {
		return errors.New("capture already running")
	}

	args := BuildArgs(d.camera, d.AudioDevice, *d.cfg)
	cmd := CommandContext(context.WithoutCancel(ctx), d.Binary, args...)
	cmd.WaitDelay = d.Grace
	proc.Detach(cmd)
	d.stderr = &bytes.Buffer{}
	cmd.Stderr = d.stderr

	p, err := proc.Start(cmd, d.Grace)
	if err != nil {
		return err
	}

	select {
	case <-p.Done():
		return fmt.Errorf("ffmpeg exited during startup: %w%s", exitErr(p.Err()), d.stderrTail())
	case <-ctx.Done():
		_ = p.Stop()
		return ctx.Err()
	case <-time.After(startupWindow):
	}

	d.proc = p
	d.Logger.Info().
		Int("pid", p.Pid()).
		Str("camera", d.camera).
		Str("path", d.cfg.Path).
		Msg("started capture process")
	return nil
}

// Stop interrupts ffmpeg and waits for it to finalize the file.
func (d *FFmpegDevice) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *FFmpegDevice) stopLocked() error {
	if d.proc == nil {
		return nil
	}
	p := d.proc
	d.proc = nil

	exitedEarly := p.Exited()
	if err := p.Stop(); err != nil {
		return err
	}
	if exitedEarly && p.Err() != nil {
		if !proc.Interrupted(p.Err()) {
			return fmt.Errorf("ffmpeg exited while recording: %w%s", p.Err(), d.stderrTail())
		}
		d.Logger.Warn().Err(p.Err()).Str("camera", d.camera).Msg("capture process was interrupted before stop")
	}
	d.Logger.Debug().Str("camera", d.camera).Msg("stopped capture process")
	return nil
}

// Close stops capture if needed and forgets the camera.
func (d *FFmpegDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.stopLocked()
	d.camera = ""
	d.cfg = nil
	return err
}

func (d *FFmpegDevice) stderrTail() string {
	if d.stderr == nil {
		return ""
	}
	msg := strings.TrimSpace(d.stderr.String())
	if msg == "" {
		return ""
	}
	if len(msg) > 512 {
		msg = msg[len(msg)-512:]
	}
	return ": " + msg
}

func exitErr(err error) error {
	if err == nil {
		return errors.New("exit status 0")
	}
	return err
}
