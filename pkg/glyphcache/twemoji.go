package glyphcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wp2pdf/wp2pdf/pkg/httputil"
)

// DefaultBaseURL serves 72x72 Twemoji PNG assets.
const DefaultBaseURL = "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/72x72"

// TwemojiFetcher downloads glyph images from a Twemoji-style CDN that names
// assets by dash-joined code points.
type TwemojiFetcher struct {
	baseURL string
	client  *httputil.Client
}

// NewTwemojiFetcher creates a fetcher for the given asset base URL. An empty
// baseURL selects DefaultBaseURL.
func NewTwemojiFetcher(baseURL string, timeout time.Duration) *TwemojiFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TwemojiFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httputil.NewClient(timeout, nil, nil),
	}
}

// FetchGlyph downloads the PNG asset for key.
func (f *TwemojiFetcher) FetchGlyph(ctx context.Context, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s.png", f.baseURL, CodePoints(key))
	data, err := f.client.GetBytes(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("twemoji %s: %w", CodePoints(key), err)
	}
	return data, nil
}
