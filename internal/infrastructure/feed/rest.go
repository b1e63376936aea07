// Package feed fetches and decodes the remote video feed.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/domain/video"
)

const (
	defaultLimit   = 5
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

type headerTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	if clone.Header.Get("Accept") == "" {
		clone.Header.Set("Accept", "application/json")
	}
	if t.apiKey != "" {
		clone.Header.Set("apikey", t.apiKey)
		clone.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return base.RoundTrip(clone)
}

// Client fetches the public video feed from the REST backend.
type Client struct {
	Endpoint string
	Limit    int
	Timeout  time.Duration
	// Lenient defaults missing id/content.url to "" instead of failing.
	Lenient bool
	HTTP    *http.Client
	Logger  zerolog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg settings.FeedConfig, logger zerolog.Logger) *Client {
	return &Client{
		Endpoint: strings.TrimSpace(cfg.Endpoint),
		Limit:    cfg.Limit,
		Timeout:  cfg.Timeout(),
		Lenient:  cfg.Lenient,
		HTTP:     &http.Client{Transport: headerTransport{base: http.DefaultTransport, apiKey: cfg.APIKey}},
		Logger:   logger,
	}
}

// RequestURL returns the feed query URL: the newest public videos first.
func (c *Client) RequestURL() (string, error) {
	if c.Endpoint == "" {
		return "", errors.New("feed endpoint is empty")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid feed endpoint: %w", err)
	}
	limit := c.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q := u.Query()
	q.Set("select", "")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("privacy", "eq.public")
	q.Set("order", "updated_at.desc")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchAll performs one GET and decodes the response in server order.
func (c *Client) FetchAll(ctx context.Context) ([]video.Item, error) {
	target, err := c.RequestURL()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	client := c.HTTP
	if client == nil {
		client = &http.Client{Transport: headerTransport{base: http.DefaultTransport}}
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Kind: KindStatus, URL: target, StatusCode: resp.StatusCode}
	}

	items, err := Decode(body, c.Lenient)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug().
		Str("url", target).
		Int("count", len(items)).
		Dur("elapsed", time.Since(started)).
		Msg("fetched video feed")
	return items, nil
}

func classifyTransportError(target string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &NetworkError{Kind: KindTimeout, URL: target, Err: err}
	}
	return &NetworkError{Kind: KindTransport, URL: target, Err: err}
}

type record struct {
	ID      *string  `json:"id"`
	Content *content `json:"content"`
	Title   *string  `json:"title"`
	UserID  *string  `json:"user_id"`
}

type content struct {
	URL        *string  `json:"url"`
	Thumbnails []string `json:"thumbnails"`
}

// Decode maps a JSON array of feed records to items.
// Unless lenient, a record without id or content.url is rejected.
func Decode(body []byte, lenient bool) ([]video.Item, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &DecodeError{Index: -1, Err: ErrEmptyBody}
	}

	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, &DecodeError{Index: -1, Err: err}
	}

	items := make([]video.Item, 0, len(records))
	for i, r := range records {
		if !lenient {
			if r.ID == nil {
				return nil, &DecodeError{Index: i, Field: "id"}
			}
			if r.Content == nil || r.Content.URL == nil {
				return nil, &DecodeError{Index: i, Field: "content.url"}
			}
		}
		item := video.Item{
			ID:     deref(r.ID),
			Title:  deref(r.Title),
			Author: deref(r.UserID),
		}
		if r.Content != nil {
			item.VideoURL = deref(r.Content.URL)
			if len(r.Content.Thumbnails) > 0 {
				item.Thumbnail = r.Content.Thumbnails[0]
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
