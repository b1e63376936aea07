package feed

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/application/usecase"
)

// NewSource returns the fetcher selected by cfg.Kind.
func NewSource(cfg settings.FeedConfig, logger zerolog.Logger) (usecase.FeedFetcher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "rest":
		return NewClient(cfg, logger), nil
	case "rss":
		return &RSSSource{URL: cfg.Endpoint, Timeout: cfg.Timeout(), Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q (expected rest or rss)", cfg.Kind)
	}
}
