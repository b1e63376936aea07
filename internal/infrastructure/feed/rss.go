package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/domain/video"
)

const rssAcceptHeader = "application/atom+xml, application/rss+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// ParserFunc is exposed for testing.
// It allows mocking the feed parsing logic.
var ParserFunc = defaultParser

func defaultParser(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "Jelly/1.0"
	fp.Client = &http.Client{Transport: acceptTransport{base: http.DefaultTransport}}
	return fp.ParseURLWithContext(feedURL, ctx)
}

type acceptTransport struct {
	base http.RoundTripper
}

func (t acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	if clone.Header.Get("Accept") == "" {
		clone.Header.Set("Accept", rssAcceptHeader)
	}
	return base.RoundTrip(clone)
}

// RSSSource reads videos from an RSS/Atom/JSON feed whose items carry
// video enclosures or media:content entries.
type RSSSource struct {
	URL     string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// FetchAll parses the feed and keeps the items that point at a video.
func (s *RSSSource) FetchAll(ctx context.Context) ([]video.Item, error) {
	feedURL := strings.TrimSpace(s.URL)
	if feedURL == "" {
		return nil, errors.New("feed url is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parsed, err := ParserFunc(ctx, feedURL)
	if err != nil {
		return nil, classifyParseError(feedURL, err)
	}

	items := make([]video.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		item, ok := convertItem(it)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	s.Logger.Debug().
		Str("url", feedURL).
		Int("items", len(parsed.Items)).
		Int("videos", len(items)).
		Msg("parsed rss video feed")
	return items, nil
}

func classifyParseError(feedURL string, err error) error {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return &NetworkError{Kind: KindStatus, URL: feedURL, StatusCode: httpErr.StatusCode, Err: err}
	}
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &urlErr) {
		return classifyTransportError(feedURL, err)
	}
	return &DecodeError{Index: -1, Err: fmt.Errorf("parse %s: %w", feedURL, err)}
}

func convertItem(it *gofeed.Item) (video.Item, bool) {
	videoURL, thumb := mediaFromExtensions(it.Extensions)
	for _, enc := range it.Enclosures {
		if enc != nil && isVideo(enc.Type, enc.URL) {
			videoURL = enc.URL
			break
		}
	}
	if videoURL == "" && isVideo("", it.Link) {
		videoURL = it.Link
	}
	if videoURL == "" {
		return video.Item{}, false
	}

	id := it.GUID
	if id == "" {
		id = it.Link
	}
	if id == "" {
		id = videoURL
	}
	if it.Image != nil && it.Image.URL != "" {
		thumb = it.Image.URL
	}
	author := ""
	if len(it.Authors) > 0 && it.Authors[0] != nil {
		author = it.Authors[0].Name
	}
	return video.Item{
		ID:        id,
		VideoURL:  videoURL,
		Thumbnail: thumb,
		Title:     it.Title,
		Author:    author,
	}, true
}

// mediaFromExtensions reads Media RSS content/thumbnail entries,
// either at item level or nested in media:group.
func mediaFromExtensions(exts ext.Extensions) (string, string) {
	media, ok := exts["media"]
	if !ok {
		return "", ""
	}
	videoURL, thumb := pickMedia(media)
	for _, group := range media["group"] {
		v, t := pickMedia(group.Children)
		if videoURL == "" {
			videoURL = v
		}
		if thumb == "" {
			thumb = t
		}
	}
	return videoURL, thumb
}

func pickMedia(nodes map[string][]ext.Extension) (string, string) {
	var videoURL, thumb string
	for _, c := range nodes["content"] {
		u := c.Attrs["url"]
		if isVideo(c.Attrs["type"], u) || c.Attrs["medium"] == "video" {
			videoURL = u
			break
		}
	}
	for _, t := range nodes["thumbnail"] {
		if u := t.Attrs["url"]; u != "" {
			thumb = u
			break
		}
	}
	return videoURL, thumb
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".webm": true,
	".mkv":  true,
	".m3u8": true,
}

func isVideo(mimeType, raw string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), "video/") {
		return true
	}
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return videoExtensions[strings.ToLower(path.Ext(u.Path))]
}
