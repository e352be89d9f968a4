// Package glyphcache maintains a content-addressed on-disk cache of emoji
// raster images.
//
// The cache maps an emoji sequence (the glyph key) to a PNG file under the
// cache directory. The name-to-file mapping persists in emoji_mapping.json
// and is rewritten in full on every update; image files are additionally
// addressed by a hash of the key, so a file surviving a partial write is
// rediscovered without a mapping entry. The cache never deletes files.
//
// Every failure mode (fetch, decode, persist) degrades to a cache miss: a
// missing glyph image costs one skipped glyph in the output document, never
// a failed render.
package glyphcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// mappingFile is the persisted key-to-filename index.
const mappingFile = "emoji_mapping.json"

// Fetcher retrieves raw image bytes for a glyph key from a remote provider.
type Fetcher interface {
	FetchGlyph(ctx context.Context, key string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key string) ([]byte, error)

// FetchGlyph calls f.
func (f FetcherFunc) FetchGlyph(ctx context.Context, key string) ([]byte, error) {
	return f(ctx, key)
}

// Cache is the two-tier glyph cache: an in-memory mapping backed by the
// cache directory. Not safe for concurrent use; rendering is single-threaded
// and the mapping rewrite strategy would lose updates under concurrency.
type Cache struct {
	dir      string
	mapping  map[string]string
	verified map[string]bool
	fetcher  Fetcher
	logger   *log.Logger
}

// New creates a Cache rooted at dir, creating the directory if needed and
// loading any existing mapping file. A corrupt mapping file is logged and
// treated as empty; the self-healing disk check recovers its entries lazily.
func New(dir string, fetcher Fetcher, logger *log.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	c := &Cache{
		dir:      dir,
		mapping:  make(map[string]string),
		verified: make(map[string]bool),
		fetcher:  fetcher,
		logger:   logger,
	}
	c.loadMapping()
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the on-disk path of the cached image for key, fetching and
// persisting it on a miss. ok is false when the glyph is unavailable; the
// caller should skip the glyph rather than fail the render.
//
// A mapping entry is only trusted after the file it names has been verified
// to decode as PNG. Entries pointing at deleted or truncated files are
// dropped and the glyph is refetched.
func (c *Cache) Path(ctx context.Context, key string) (string, bool) {
	if name, ok := c.mapping[key]; ok {
		path := filepath.Join(c.dir, name)
		if c.usable(path) {
			return path, true
		}
		c.logger.Warn("stale glyph mapping, refetching", "key", key, "file", name)
		delete(c.mapping, key)
	}

	name := Filename(key)
	path := filepath.Join(c.dir, name)

	// A file may exist without a mapping entry after a partial write.
	if !c.usable(path) {
		if err := c.fetchAndStore(ctx, key, path); err != nil {
			c.logger.Warn("glyph unavailable", "key", key, "err", err)
			return "", false
		}
		c.verified[path] = true
	}

	c.mapping[key] = name
	c.saveMapping()
	return path, true
}

// usable reports whether path holds a decodable PNG. Results are memoized
// for the lifetime of the cache so each file is decoded at most once.
func (c *Cache) usable(path string) bool {
	if c.verified[path] {
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		return false
	}
	c.verified[path] = true
	return true
}

// fetchAndStore downloads, normalizes, and persists the glyph image.
func (c *Cache) fetchAndStore(ctx context.Context, key, path string) error {
	if c.fetcher == nil {
		return fmt.Errorf("no glyph fetcher configured")
	}
	data, err := c.fetcher.FetchGlyph(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	// Normalize to RGBA before encoding.
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// loadMapping reads the persisted mapping file, if present.
func (c *Cache) loadMapping() {
	data, err := os.ReadFile(filepath.Join(c.dir, mappingFile))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Error("load emoji mapping", "err", err)
		}
		return
	}
	if err := json.Unmarshal(data, &c.mapping); err != nil {
		c.logger.Error("parse emoji mapping", "err", err)
		c.mapping = make(map[string]string)
	}
}

// saveMapping rewrites the full mapping file. Last write wins; single-writer
// discipline is the caller's responsibility if rendering is parallelized.
func (c *Cache) saveMapping() {
	data, err := json.MarshalIndent(c.mapping, "", "  ")
	if err != nil {
		c.logger.Error("encode emoji mapping", "err", err)
		return
	}
	if err := os.WriteFile(filepath.Join(c.dir, mappingFile), data, 0o644); err != nil {
		c.logger.Error("save emoji mapping", "err", err)
	}
}

// Filename derives the deterministic cache filename for a glyph key.
func Filename(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "emoji_" + hex.EncodeToString(sum[:]) + ".png"
}

// CodePoints renders a glyph key as dash-joined lowercase hex code points,
// the naming scheme used by Twemoji-style asset providers
// (e.g. "😀" → "1f600").
func CodePoints(key string) string {
	parts := make([]string, 0, 4)
	for _, r := range key {
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}
