// Package config loads wp2pdf configuration from a TOML file with
// environment-variable overrides for credentials.
//
// All fields have working defaults except the WordPress site URL, which must
// be supplied either in the config file or on the command line. Credentials
// are read from WP2PDF_USERNAME and WP2PDF_PASSWORD when not present in the
// file, so that application passwords stay out of version control.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wp2pdf/wp2pdf/pkg/errors"
)

// Environment variable names for credential overrides.
const (
	EnvUsername = "WP2PDF_USERNAME"
	EnvPassword = "WP2PDF_PASSWORD"
)

// Config holds all settings for a batch run.
type Config struct {
	// SiteURL is the WordPress site base URL (e.g. "https://blog.example.com").
	SiteURL string `toml:"site_url"`

	// Username and Password authenticate against the WordPress REST API.
	// An application password is expected, not the account password.
	Username string `toml:"username"`
	Password string `toml:"password"`

	// BatchSize is the number of posts fetched per API page.
	BatchSize int `toml:"batch_size"`

	// Workers bounds concurrent image downloads per post.
	Workers int `toml:"workers"`

	// MaxRetries is the retry budget for API and image requests.
	MaxRetries int `toml:"max_retries"`

	// Timeout bounds each individual HTTP request.
	Timeout Duration `toml:"timeout"`

	// ImageMaxSize is the maximum width/height in pixels; larger images
	// are downscaled preserving aspect ratio.
	ImageMaxSize int `toml:"image_max_size"`

	// OutputDir is the base directory for generated PDFs and state files.
	OutputDir string `toml:"output_dir"`

	// FontsDir contains the NotoSans TTF files registered with the renderer.
	// Empty means use the built-in core fonts (ASCII-only fallback).
	FontsDir string `toml:"fonts_dir"`

	// CacheDir holds the emoji image cache and the HTTP response cache.
	// Empty means the XDG default (~/.cache/wp2pdf).
	CacheDir string `toml:"cache_dir"`

	// EmojiBaseURL is the glyph image provider, one PNG per code-point
	// sequence.
	EmojiBaseURL string `toml:"emoji_base_url"`

	// RetryDelay is the initial page-level retry delay; it doubles after
	// each failed page fetch up to MaxRetryDelay.
	RetryDelay    Duration `toml:"retry_delay"`
	MaxRetryDelay Duration `toml:"max_retry_delay"`
}

// Duration wraps time.Duration with TOML string decoding ("25s", "5m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		BatchSize:     10,
		Workers:       5,
		MaxRetries:    3,
		Timeout:       Duration(25 * time.Second),
		ImageMaxSize:  800,
		OutputDir:     "output",
		EmojiBaseURL:  "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/72x72",
		RetryDelay:    Duration(30 * time.Second),
		MaxRetryDelay: Duration(5 * time.Minute),
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file is
// not an error when path is empty; a named file must exist. Credentials are
// filled from the environment when absent from the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if os.IsNotExist(err) {
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	if cfg.Username == "" {
		cfg.Username = os.Getenv(EnvUsername)
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv(EnvPassword)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a batch run.
func (c Config) Validate() error {
	if c.SiteURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "site_url is required")
	}
	if c.BatchSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be positive, got %d", c.Workers)
	}
	if c.ImageMaxSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "image_max_size must be positive, got %d", c.ImageMaxSize)
	}
	return nil
}

// ErrorsDir returns the directory for degraded error documents.
func (c Config) ErrorsDir() string {
	return filepath.Join(c.OutputDir, "errors")
}

// EmojiCacheDir returns the directory for cached emoji raster images.
func (c Config) EmojiCacheDir() string {
	return filepath.Join(c.CacheDir, "emoji")
}

// HTTPCacheDir returns the directory for cached HTTP responses.
func (c Config) HTTPCacheDir() string {
	return filepath.Join(c.CacheDir, "http")
}

// defaultCacheDir returns the cache directory following the XDG convention
// (~/.cache/wp2pdf), falling back to a local directory when the home
// directory cannot be determined.
func defaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "wp2pdf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wp2pdf-cache"
	}
	return filepath.Join(home, ".cache", "wp2pdf")
}
