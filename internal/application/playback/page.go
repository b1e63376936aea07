// Package playback binds feed items to player instances, one page at a time.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/domain/video"
)

// ErrUnplayable is returned when a page's item has no usable video URL.
var ErrUnplayable = errors.New("video is not playable")

// Player is a single playback instance for one video.
type Player interface {
	// Play starts playback immediately.
	Play(ctx context.Context) error
	// Release frees the player. Calling it more than once is allowed.
	Release() error
}

// PlayerFactory creates a player for an item.
type PlayerFactory interface {
	NewPlayer(ctx context.Context, item video.Item) (Player, error)
}

// PlayerFactoryFunc adapts a function to PlayerFactory.
type PlayerFactoryFunc func(ctx context.Context, item video.Item) (Player, error)

// NewPlayer implements PlayerFactory.
func (f PlayerFactoryFunc) NewPlayer(ctx context.Context, item video.Item) (Player, error) {
	return f(ctx, item)
}

// State describes where a page is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StatePlaceholder
	StatePlaying
	StateFailed
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaceholder:
		return "placeholder"
	case StatePlaying:
		return "playing"
	case StateFailed:
		return "failed"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Page owns at most one player for one item.
type Page struct {
	item    video.Item
	factory PlayerFactory
	logger  zerolog.Logger

	mu     sync.Mutex
	state  State
	player Player
	err    error
}

// NewPage returns an idle page for item.
func NewPage(item video.Item, factory PlayerFactory, logger zerolog.Logger) *Page {
	return &Page{item: item, factory: factory, logger: logger}
}

// Item returns the page's video.
func (p *Page) Item() video.Item { return p.item }

// State returns the current lifecycle state.
func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error that put the page into StateFailed, if any.
func (p *Page) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Activate acquires a player and starts playback. An unplayable item
// never reaches the factory: the page shows a placeholder instead.
// Activating a playing page is a no-op.
func (p *Page) Activate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StatePlaying {
		return nil
	}
	p.err = nil

	if !p.item.Playable() {
		p.state = StatePlaceholder
		return fmt.Errorf("%s: %w", p.item.ID, ErrUnplayable)
	}
	if p.factory == nil {
		return p.failLocked(errors.New("no player factory"))
	}

	player, err := p.factory.NewPlayer(ctx, p.item)
	if err != nil {
		return p.failLocked(fmt.Errorf("create player: %w", err))
	}
	if err := player.Play(ctx); err != nil {
		if rerr := player.Release(); rerr != nil {
			p.logger.Warn().Err(rerr).Str("video_id", p.item.ID).Msg("release after failed play")
		}
		return p.failLocked(fmt.Errorf("start playback: %w", err))
	}

	p.player = player
	p.state = StatePlaying
	p.logger.Debug().Str("video_id", p.item.ID).Msg("playback started")
	return nil
}

func (p *Page) failLocked(err error) error {
	p.state = StateFailed
	p.err = err
	p.logger.Error().Err(err).Str("video_id", p.item.ID).Msg("playback failed")
	return err
}

// Release frees the page's player, if any. It is safe to call from any exit
// path and any number of times; the player sees exactly one Release.
func (p *Page) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	player := p.player
	p.player = nil
	if p.state != StateIdle || player != nil {
		p.state = StateReleased
	}
	if player == nil {
		return nil
	}
	if err := player.Release(); err != nil {
		p.logger.Warn().Err(err).Str("video_id", p.item.ID).Msg("player release failed")
		return fmt.Errorf("release player: %w", err)
	}
	p.logger.Debug().Str("video_id", p.item.ID).Msg("player released")
	return nil
}

// Run activates a page for item, calls fn with it and releases the page
// when fn returns, panics, or ctx is cancelled first.
func Run(ctx context.Context, item video.Item, factory PlayerFactory, logger zerolog.Logger, fn func(context.Context, *Page) error) (err error) {
	page := NewPage(item, factory, logger)
	defer func() {
		if rerr := page.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	if err := page.Activate(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, page)
}
