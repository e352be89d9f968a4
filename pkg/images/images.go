// Package images downloads and normalizes post images for rendering:
// thumbnail URLs are rewritten to their full-size originals, alpha is
// flattened against white, and oversized images are scaled down before the
// PDF layer sees them.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wp2pdf/wp2pdf/pkg/errors"
	"github.com/wp2pdf/wp2pdf/pkg/httputil"
)

// thumbnailSuffix matches WordPress-generated size suffixes like
// "photo-300x200.jpg"; stripping it yields the original upload URL.
var thumbnailSuffix = regexp.MustCompile(`-\d+x\d+(\.[^.]+)$`)

// Decoded is a normalized image ready for embedding: encoded PNG bytes plus
// pixel dimensions for aspect-fit arithmetic.
type Decoded struct {
	Width  int
	Height int
	PNG    []byte
}

// Fetcher downloads and normalizes images. An optional response cache keeps
// repeated runs from re-downloading unchanged media.
type Fetcher struct {
	http    *httputil.Client
	cache   *httputil.Cache
	maxSize int
	logger  *log.Logger
}

// Options configures a Fetcher.
type Options struct {
	Timeout time.Duration
	MaxSize int             // longest edge after downscaling, pixels
	Cache   *httputil.Cache // optional; namespaced internally
	Logger  *log.Logger
}

// NewFetcher builds a Fetcher. A zero MaxSize defaults to 800.
func NewFetcher(opts Options) *Fetcher {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = 800
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	var cache *httputil.Cache
	if opts.Cache != nil {
		cache = opts.Cache.Namespace("img:")
	}
	return &Fetcher{
		http:    httputil.NewClient(opts.Timeout, nil, nil),
		cache:   cache,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Fetch downloads url and returns the normalized image. Thumbnail URLs are
// rewritten to the full-size original first, falling back to the thumbnail
// when the original is unavailable. Transient failures are retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Decoded, error) {
	fullSize := thumbnailSuffix.ReplaceAllString(url, "$1")
	if fullSize != url {
		if img, err := f.fetch(ctx, fullSize); err == nil {
			return img, nil
		} else {
			f.logger.Debug("full-size image unavailable, using thumbnail",
				"url", fullSize, "err", err)
		}
	}
	return f.fetch(ctx, url)
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Decoded, error) {
	if f.cache != nil {
		var cached Decoded
		if hit, err := f.cache.Get(url, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = f.http.GetBytes(ctx, url, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	img, err := Normalize(data, f.maxSize)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", url, err)
	}

	if f.cache != nil {
		if err := f.cache.Set(url, img); err != nil {
			f.logger.Debug("image cache write failed", "url", url, "err", err)
		}
	}
	return img, nil
}

// Normalize decodes raw image bytes (png, jpeg, or gif), flattens any alpha
// channel against white, scales the image down to fit maxSize on its longest
// edge, and re-encodes as PNG.
func Normalize(data []byte, maxSize int) (*Decoded, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image")
	}

	flat := flattenOnWhite(src)
	if maxSize > 0 {
		flat = fitWithin(flat, maxSize)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, err
	}
	bounds := flat.Bounds()
	return &Decoded{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		PNG:    buf.Bytes(),
	}, nil
}
