package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesso57/jelly/internal/domain/video"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePlayer struct {
	mu       sync.Mutex
	id       string
	plays    int
	releases int
	playErr  error
}

func (p *fakePlayer) Play(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return p.playErr
}

func (p *fakePlayer) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
	return nil
}

func (p *fakePlayer) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays, p.releases
}

type countingFactory struct {
	mu      sync.Mutex
	players []*fakePlayer
	err     error
	playErr error
}

func (f *countingFactory) NewPlayer(_ context.Context, item video.Item) (Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := &fakePlayer{id: item.ID, playErr: f.playErr}
	f.players = append(f.players, p)
	return p, nil
}

func (f *countingFactory) created() []*fakePlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakePlayer(nil), f.players...)
}

// live returns players that were created but not released.
func (f *countingFactory) live() int {
	n := 0
	for _, p := range f.created() {
		if _, r := p.counts(); r == 0 {
			n++
		}
	}
	return n
}

func playable(id string) video.Item {
	return video.Item{ID: id, VideoURL: "https://cdn.example.com/" + id + ".mp4"}
}

func TestPage_ActivatePlaysImmediately(t *testing.T) {
	f := &countingFactory{}
	page := NewPage(playable("a"), f, zerolog.Nop())

	require.NoError(t, page.Activate(context.Background()))
	assert.Equal(t, StatePlaying, page.State())

	players := f.created()
	require.Len(t, players, 1)
	plays, releases := players[0].counts()
	assert.Equal(t, 1, plays)
	assert.Zero(t, releases)

	require.NoError(t, page.Activate(context.Background()))
	assert.Len(t, f.created(), 1, "activating a playing page must not create another player")
}

func TestPage_UnplayableFailsClosed(t *testing.T) {
	for _, url := range []string{"", "not a url", "ftp://host/x.mp4", "/relative/path"} {
		t.Run(url, func(t *testing.T) {
			f := &countingFactory{}
			page := NewPage(video.Item{ID: "x", VideoURL: url}, f, zerolog.Nop())

			err := page.Activate(context.Background())
			assert.ErrorIs(t, err, ErrUnplayable)
			assert.Equal(t, StatePlaceholder, page.State())
			assert.Empty(t, f.created())
		})
	}
}

func TestPage_FactoryFailure(t *testing.T) {
	boom := errors.New("boom")
	f := &countingFactory{err: boom}
	page := NewPage(playable("a"), f, zerolog.Nop())

	err := page.Activate(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, page.State())
	assert.ErrorIs(t, page.Err(), boom)
}

func TestPage_PlayFailureReleasesPlayer(t *testing.T) {
	boom := errors.New("no decoder")
	f := &countingFactory{playErr: boom}
	page := NewPage(playable("a"), f, zerolog.Nop())

	err := page.Activate(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, page.State())

	require.NoError(t, page.Release())
	players := f.created()
	require.Len(t, players, 1)
	_, releases := players[0].counts()
	assert.Equal(t, 1, releases)
}

func TestPage_ReleaseExactlyOnce(t *testing.T) {
	f := &countingFactory{}
	page := NewPage(playable("a"), f, zerolog.Nop())
	require.NoError(t, page.Activate(context.Background()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() { _ = page.Release() })
	}
	wg.Wait()

	_, releases := f.created()[0].counts()
	assert.Equal(t, 1, releases)
	assert.Equal(t, StateReleased, page.State())
}

func TestPage_ReleaseBeforeActivate(t *testing.T) {
	page := NewPage(playable("a"), &countingFactory{}, zerolog.Nop())
	require.NoError(t, page.Release())
	assert.Equal(t, StateIdle, page.State())
}

func TestPage_ReactivateAfterRelease(t *testing.T) {
	f := &countingFactory{}
	page := NewPage(playable("a"), f, zerolog.Nop())
	require.NoError(t, page.Activate(context.Background()))
	require.NoError(t, page.Release())
	require.NoError(t, page.Activate(context.Background()))
	require.NoError(t, page.Release())

	players := f.created()
	require.Len(t, players, 2)
	for _, p := range players {
		_, releases := p.counts()
		assert.Equal(t, 1, releases)
	}
}

func TestRun_ReleasesOnReturn(t *testing.T) {
	f := &countingFactory{}
	called := false
	err := Run(context.Background(), playable("a"), f, zerolog.Nop(), func(_ context.Context, p *Page) error {
		called = true
		assert.Equal(t, StatePlaying, p.State())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Zero(t, f.live())
}

func TestRun_ReleasesOnError(t *testing.T) {
	f := &countingFactory{}
	boom := errors.New("boom")
	err := Run(context.Background(), playable("a"), f, zerolog.Nop(), func(context.Context, *Page) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.live())
}

func TestRun_ReleasesOnPanic(t *testing.T) {
	f := &countingFactory{}
	assert.Panics(t, func() {
		_ = Run(context.Background(), playable("a"), f, zerolog.Nop(), func(context.Context, *Page) error {
			panic("kaboom")
		})
	})
	require.Len(t, f.created(), 1)
	assert.Zero(t, f.live())
}

func TestRun_ReleasesOnCancel(t *testing.T) {
	f := &countingFactory{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	started := make(chan struct{})

	go func() {
		done <- Run(ctx, playable("a"), f, zerolog.Nop(), func(ctx context.Context, _ *Page) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, f.live())
}

func TestRun_UnplayableSkipsFn(t *testing.T) {
	f := &countingFactory{}
	err := Run(context.Background(), video.Item{ID: "x"}, f, zerolog.Nop(), func(context.Context, *Page) error {
		t.Fatal("fn must not run for an unplayable item")
		return nil
	})
	assert.ErrorIs(t, err, ErrUnplayable)
	assert.Empty(t, f.created())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "State(42)", State(42).String())
}
