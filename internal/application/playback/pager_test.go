package playback

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesso57/jelly/internal/domain/video"
)

func threeVideos() []video.Item {
	return []video.Item{playable("a"), playable("b"), playable("c")}
}

func TestPager_ShowReleasesPrevious(t *testing.T) {
	f := &countingFactory{}
	p := NewPager(f, zerolog.Nop())
	require.NoError(t, p.SetVideos(threeVideos()))

	_, err := p.Show(context.Background(), 0)
	require.NoError(t, err)
	_, err = p.Show(context.Background(), 2)
	require.NoError(t, err)

	players := f.created()
	require.Len(t, players, 2)
	_, r0 := players[0].counts()
	_, r1 := players[1].counts()
	assert.Equal(t, 1, r0)
	assert.Zero(t, r1)
	assert.Equal(t, 1, f.live())
	assert.Equal(t, 2, p.Index())
	assert.Equal(t, "c", p.Current().Item().ID)
}

func TestPager_NextPrevClamp(t *testing.T) {
	f := &countingFactory{}
	p := NewPager(f, zerolog.Nop())
	require.NoError(t, p.SetVideos(threeVideos()))
	ctx := context.Background()

	page, err := p.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", page.Item().ID)

	for range 5 {
		_, err = p.Next(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.Index())
	assert.Len(t, f.created(), 3, "clamped moves must not create players")
	assert.Equal(t, 1, f.live())

	page, err = p.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", page.Item().ID)
	assert.Equal(t, 1, f.live())
}

func TestPager_EmptyIsNoop(t *testing.T) {
	p := NewPager(&countingFactory{}, zerolog.Nop())
	page, err := p.Next(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, page)

	page, err = p.Replay(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, page)

	_, err = p.Show(context.Background(), 0)
	assert.Error(t, err)
}

func TestPager_UnplayableItemShowsPlaceholder(t *testing.T) {
	f := &countingFactory{}
	p := NewPager(f, zerolog.Nop())
	require.NoError(t, p.SetVideos([]video.Item{playable("a"), {ID: "broken"}}))

	_, err := p.Show(context.Background(), 0)
	require.NoError(t, err)
	page, err := p.Next(context.Background())
	assert.ErrorIs(t, err, ErrUnplayable)
	assert.Equal(t, StatePlaceholder, page.State())
	assert.Zero(t, f.live())
}

func TestPager_SetVideosReleases(t *testing.T) {
	f := &countingFactory{}
	p := NewPager(f, zerolog.Nop())
	require.NoError(t, p.SetVideos(threeVideos()))
	_, err := p.Show(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, p.SetVideos([]video.Item{playable("z")}))
	assert.Zero(t, f.live())
	assert.Zero(t, p.Index())
	assert.Nil(t, p.Current())
	assert.Equal(t, 1, p.Len())
}

func TestPager_ReplayCreatesFreshPlayer(t *testing.T) {
	f := &countingFactory{}
	p := NewPager(f, zerolog.Nop())
	require.NoError(t, p.SetVideos(threeVideos()))
	_, err := p.Show(context.Background(), 0)
	require.NoError(t, err)

	_, err = p.Replay(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.created(), 2)
	assert.Equal(t, 1, f.live())
}

func TestPager_Close(t *testing.T) {
	f := &countingFactory{}
	p := NewPager(f, zerolog.Nop())
	require.NoError(t, p.SetVideos(threeVideos()))
	_, err := p.Show(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Zero(t, f.live())
}
