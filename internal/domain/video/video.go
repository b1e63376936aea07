// Package video defines the core feed and recording models.
package video

import (
	"net/url"
	"strings"
)

// Item represents one playable feed entry.
type Item struct {
	ID        string
	VideoURL  string
	Thumbnail string
	Title     string
	Author    string
}

// Playable reports whether the item has a source a player can open.
func (i Item) Playable() bool {
	raw := strings.TrimSpace(i.VideoURL)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

// DisplayTitle returns the title, falling back to the ID for untitled videos.
func (i Item) DisplayTitle() string {
	if t := strings.TrimSpace(i.Title); t != "" {
		return t
	}
	if i.ID != "" {
		return i.ID
	}
	return "(untitled)"
}

// LoadFailedMessage is shown when a feed refresh fails.
const LoadFailedMessage = "Failed to load videos. Please try again."

// FeedState is one published snapshot of the feed.
// Videos and Err always belong to the same publish.
type FeedState struct {
	Videos     []Item
	Err        string
	Generation uint64
	Loading    bool
}

// HasError reports whether the last refresh failed.
func (s FeedState) HasError() bool {
	return s.Err != ""
}

// Clone returns a copy whose Videos slice does not alias the receiver's.
func (s FeedState) Clone() FeedState {
	out := s
	if s.Videos != nil {
		out.Videos = append([]Item(nil), s.Videos...)
	}
	return out
}
