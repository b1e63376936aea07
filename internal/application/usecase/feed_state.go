// Package usecase contains application-level services.
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/domain/video"
)

// FeedFetcher abstracts retrieval of the remote video feed.
type FeedFetcher interface {
	FetchAll(ctx context.Context) ([]video.Item, error)
}

// FeedState owns the feed snapshot shown to the UI. It is the only writer;
// observers read snapshots through Snapshot or Subscribe.
//
// Every Refresh gets a new generation. A completing fetch publishes only when
// its generation is still the most recently initiated one, so an older
// request finishing late never overwrites a newer result.
type FeedState struct {
	fetcher FeedFetcher
	logger  zerolog.Logger

	mu      sync.Mutex
	state   video.FeedState
	latest  uint64
	subs    map[int]chan video.FeedState
	nextSub int
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFeedState constructs an empty holder.
func NewFeedState(fetcher FeedFetcher, logger zerolog.Logger) *FeedState {
	ctx, cancel := context.WithCancel(context.Background())
	return &FeedState{
		fetcher: fetcher,
		logger:  logger,
		subs:    make(map[int]chan video.FeedState),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Snapshot returns the current state.
func (h *FeedState) Snapshot() video.FeedState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone()
}

// Subscribe returns a channel that always holds the latest published snapshot.
// Intermediate snapshots may be skipped by slow readers. The channel is closed
// by the returned cancel func or by Close.
func (h *FeedState) Subscribe() (<-chan video.FeedState, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan video.FeedState, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	ch <- h.state.Clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Refresh starts a fetch in the background and returns its generation
// immediately. Completion is observable through the published state only.
// It returns 0 once the holder is closed.
func (h *FeedState) Refresh(ctx context.Context) uint64 {
	if ctx == nil {
		ctx = context.Background()
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0
	}
	h.latest++
	gen := h.latest
	h.state.Loading = true
	h.publishLocked()
	h.wg.Add(1)
	h.mu.Unlock()

	go h.run(ctx, gen)
	return gen
}

func (h *FeedState) run(ctx context.Context, gen uint64) {
	defer h.wg.Done()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(h.ctx, cancel)
	defer stop()

	items, err := h.fetcher.FetchAll(fetchCtx)
	h.complete(gen, items, err)
}

func (h *FeedState) complete(gen uint64, items []video.Item, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if gen != h.latest {
		h.logger.Debug().
			Uint64("generation", gen).
			Uint64("latest", h.latest).
			Bool("failed", err != nil).
			Msg("discarding stale feed result")
		return
	}

	if err != nil {
		h.logger.Error().Err(err).Uint64("generation", gen).Msg("error fetching videos")
		h.state.Err = video.LoadFailedMessage
	} else {
		h.state.Videos = items
		h.state.Err = ""
	}
	h.state.Generation = gen
	h.state.Loading = false
	h.publishLocked()
}

func (h *FeedState) publishLocked() {
	snap := h.state.Clone()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Wait blocks until every started fetch has completed.
func (h *FeedState) Wait() {
	h.wg.Wait()
}

// Close cancels in-flight fetches, closes subscriber channels and waits for
// background work to finish. Later Refresh calls are ignored.
func (h *FeedState) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.cancel()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
