// Package presenter builds view models for the TUI.
package presenter

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"
	"github.com/tesso57/jelly/internal/domain/video"
)

// VideoItem is a view model for a feed entry.
type VideoItem struct {
	TitleText string
	Author    string
	URL       string
	Playable  bool
}

// FilterValue implements list.Item.
func (i *VideoItem) FilterValue() string { return i.TitleText }

// Title returns the item title.
func (i *VideoItem) Title() string { return i.TitleText }

// IsPlayable reports whether the video can be played.
func (i *VideoItem) IsPlayable() bool { return i.Playable }

// BuildVideoListItems builds list items for the feed sidebar.
func BuildVideoListItems(videos []video.Item) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = &VideoItem{
			TitleText: fmt.Sprintf("%d. %s", i+1, v.DisplayTitle()),
			Author:    v.Author,
			URL:       v.VideoURL,
			Playable:  v.Playable(),
		}
	}
	return items
}

// ApplyVideoList updates the list model with feed items and keeps the
// selection on index.
func ApplyVideoList(model *list.Model, videos []video.Item, index int) {
	model.SetItems(BuildVideoListItems(videos))
	if index >= 0 && index < len(videos) {
		model.Select(index)
	}
}

// ClipItem is a view model for a camera roll entry.
type ClipItem struct {
	ID        string
	Name      string
	Path      string
	Quality   video.Quality
	Audio     bool
	Duration  time.Duration
	Recorded  time.Time
	SizeBytes int64
}

// FilterValue implements list.Item.
func (i *ClipItem) FilterValue() string { return i.Name }

// Title returns the clip file name.
func (i *ClipItem) Title() string { return i.Name }

// IsMuted reports whether the clip was recorded without sound.
func (i *ClipItem) IsMuted() bool { return !i.Audio }

// Description returns quality, length, size and age.
func (i *ClipItem) Description() string {
	parts := string(i.Quality)
	if i.Duration > 0 {
		parts += " · " + FormatDuration(i.Duration)
	}
	if i.SizeBytes > 0 {
		parts += " · " + humanize.Bytes(uint64(i.SizeBytes))
	}
	if !i.Recorded.IsZero() {
		parts += " · " + humanize.Time(i.Recorded)
	}
	return parts
}

// BuildClipListItems builds list items for the camera roll.
func BuildClipListItems(clips []video.Clip) []list.Item {
	items := make([]list.Item, len(clips))
	for i, c := range clips {
		items[i] = &ClipItem{
			ID:        c.ID,
			Name:      c.Name(),
			Path:      c.Path,
			Quality:   c.Quality,
			Audio:     c.Audio,
			Duration:  c.Duration,
			Recorded:  c.RecordedAt,
			SizeBytes: c.Size,
		}
	}
	return items
}

// ApplyClipList updates the roll list.
func ApplyClipList(model *list.Model, clips []video.Clip) {
	model.SetItems(BuildClipListItems(clips))
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
