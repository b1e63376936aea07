// Package player launches an external media player for playback pages.
package player

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/application/playback"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/domain/video"
	"github.com/tesso57/jelly/internal/infrastructure/proc"
)

// CommandContext builds the player command. Tests swap it out.
var CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...) //nolint:gosec
}

// ProcessFactory creates one player process per page.
type ProcessFactory struct {
	Command string
	Args    []string
	Grace   time.Duration
	Logger  zerolog.Logger
}

// NewProcessFactory returns a factory for the configured player.
func NewProcessFactory(cfg settings.PlayerConfig, logger zerolog.Logger) *ProcessFactory {
	command := cfg.Command
	if command == "" {
		command = "mpv"
	}
	return &ProcessFactory{
		Command: command,
		Args:    append([]string(nil), cfg.Args...),
		Grace:   proc.DefaultGrace,
		Logger:  logger,
	}
}

// NewPlayer implements playback.PlayerFactory. The process is not started
// until Play.
func (f *ProcessFactory) NewPlayer(_ context.Context, item video.Item) (playback.Player, error) {
	if f.Command == "" {
		return nil, errors.New("player command is empty")
	}
	return &Process{
		factory: f,
		url:     item.VideoURL,
		videoID: item.ID,
	}, nil
}

// Process is a player backed by an OS process.
type Process struct {
	factory *ProcessFactory
	url     string
	videoID string

	mu       sync.Mutex
	proc     *proc.Process
	released bool
	cancel   context.CancelFunc
}

// Play starts the player process. Cancelling ctx kills it.
func (p *Process) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return errors.New("player already released")
	}
	if p.proc != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	args := append(append([]string(nil), p.factory.Args...), p.url)
	cmd := CommandContext(runCtx, p.factory.Command, args...)
	if cmd == nil {
		cancel()
		return errors.New("unsupported player command")
	}
	started, err := proc.Start(cmd, p.factory.Grace)
	if err != nil {
		cancel()
		return err
	}
	p.proc = started
	p.cancel = cancel
	p.factory.Logger.Debug().
		Str("video_id", p.videoID).
		Int("pid", started.Pid()).
		Msg("player started")
	return nil
}

// Release stops the process if it is running. Safe to call repeatedly.
func (p *Process) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return nil
	}
	p.released = true
	if p.proc == nil {
		return nil
	}
	err := p.proc.Stop()
	p.cancel()
	p.factory.Logger.Debug().Str("video_id", p.videoID).Msg("player stopped")
	return err
}
