package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/domain/video"
)

// Pager pages through a feed snapshot with at most one live page.
type Pager struct {
	factory PlayerFactory
	logger  zerolog.Logger

	mu     sync.Mutex
	videos []video.Item
	index  int
	page   *Page
}

// NewPager returns an empty pager.
func NewPager(factory PlayerFactory, logger zerolog.Logger) *Pager {
	return &Pager{factory: factory, logger: logger}
}

// SetVideos replaces the items, releasing the visible page and resetting
// to the first item.
func (p *Pager) SetVideos(videos []video.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.releaseLocked()
	p.videos = append([]video.Item(nil), videos...)
	p.index = 0
	return err
}

// Len returns the number of items.
func (p *Pager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.videos)
}

// Index returns the visible item index.
func (p *Pager) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Current returns the visible page, or nil when nothing was shown yet.
func (p *Pager) Current() *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Show releases the visible page and activates the page at i.
// The returned page is valid even when activation failed.
func (p *Pager) Show(ctx context.Context, i int) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.showLocked(ctx, i)
}

func (p *Pager) showLocked(ctx context.Context, i int) (*Page, error) {
	if i < 0 || i >= len(p.videos) {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, len(p.videos))
	}
	if err := p.releaseLocked(); err != nil {
		p.logger.Warn().Err(err).Msg("release previous page")
	}
	p.index = i
	p.page = NewPage(p.videos[i], p.factory, p.logger)
	return p.page, p.page.Activate(ctx)
}

// Next moves one page forward. At the last page it stays put and returns
// the current page without re-activating it.
func (p *Pager) Next(ctx context.Context) (*Page, error) {
	return p.step(ctx, 1)
}

// Prev moves one page back, clamped at the first page.
func (p *Pager) Prev(ctx context.Context) (*Page, error) {
	return p.step(ctx, -1)
}

func (p *Pager) step(ctx context.Context, delta int) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.videos) == 0 {
		return nil, nil
	}
	target := min(max(p.index+delta, 0), len(p.videos)-1)
	if target == p.index && p.page != nil {
		return p.page, nil
	}
	return p.showLocked(ctx, target)
}

// Replay restarts the visible page with a fresh player.
func (p *Pager) Replay(ctx context.Context) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.videos) == 0 {
		return nil, nil
	}
	return p.showLocked(ctx, p.index)
}

// Close releases the visible page.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releaseLocked()
}

func (p *Pager) releaseLocked() error {
	if p.page == nil {
		return nil
	}
	page := p.page
	p.page = nil
	return page.Release()
}
