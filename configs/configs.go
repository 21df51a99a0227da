package configs

import (
	"fmt"
	"net/http"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// Config carries everything the pipeline components need. It is built once
// in main and passed into each component at construction time; there is no
// package-level state.
type Config struct {
	// TargetUserID is the numeric Pixiv id whose bookmarks are mirrored.
	TargetUserID string `env:"PIXIV_TARGET_USER_ID"`

	// CookieFile holds one line with the full session cookie header string.
	CookieFile string `env:"PIXIV_COOKIE_FILE"`

	Lang      string `env:"PIXIV_LANG"`
	Proxy     string `env:"PIXIV_PROXY"`
	UserAgent string `env:"PIXIV_USER_AGENT"`

	// RawDir receives the downloaded originals,
	// CompressedDir the transcoded copies. Both get per-type subdirectories.
	RawDir        string `env:"PIXIV_RAW_DIR"`
	CompressedDir string `env:"PIXIV_COMPRESSED_DIR"`

	DatabasePath string `env:"PIXIV_DB_PATH"`

	Aria2cPath   string `env:"ARIA2C_PATH"`
	ExiftoolPath string `env:"EXIFTOOL_PATH"`

	// Worker pool sizes (see the concurrency model in the README).
	DetailWorkers  int `env:"PIXIV_DETAIL_WORKERS"`
	ArtworkWorkers int `env:"PIXIV_ARTWORK_WORKERS"`
	ImageWorkers   int `env:"PIXIV_IMAGE_WORKERS"`
	TagWorkers     int `env:"PIXIV_TAG_WORKERS"`

	// Retry bounds. Detail fetches retry more aggressively than downloads
	// since a failed detail fetch aborts the whole artwork.
	DetailRetries   int `env:"PIXIV_DETAIL_RETRIES"`
	DownloadRetries int `env:"PIXIV_DOWNLOAD_RETRIES"`

	RetryDelay      time.Duration `env:"PIXIV_RETRY_DELAY"`
	RequestTimeout  time.Duration `env:"PIXIV_REQUEST_TIMEOUT"`
	DownloadTimeout time.Duration `env:"PIXIV_DOWNLOAD_TIMEOUT"`
}

// NewConfig reads .env (if present) and the environment,
// then fills in the documented defaults for anything unset.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = utils.USER_AGENT
	}
	if cfg.RawDir == "" {
		cfg.RawDir = "downloads"
	}
	if cfg.CompressedDir == "" {
		cfg.CompressedDir = "compressed"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join("data", "bookmarks.sqlite")
	}
	if cfg.Aria2cPath == "" {
		cfg.Aria2cPath = "aria2c"
	}
	if cfg.ExiftoolPath == "" {
		cfg.ExiftoolPath = "exiftool"
	}

	if cfg.DetailWorkers <= 0 {
		cfg.DetailWorkers = 16
	}
	if cfg.ArtworkWorkers <= 0 {
		cfg.ArtworkWorkers = 16
	}
	if cfg.ImageWorkers <= 0 {
		cfg.ImageWorkers = 4
	}
	if cfg.TagWorkers <= 0 {
		cfg.TagWorkers = 16
	}

	if cfg.DetailRetries <= 0 {
		cfg.DetailRetries = 16
	}
	if cfg.DownloadRetries <= 0 {
		cfg.DownloadRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 10 * time.Minute
	}

	return cfg
}

// Validate checks the settings that would otherwise only fail mid-run.
func (c *Config) Validate() error {
	if c.TargetUserID == "" {
		return fmt.Errorf("target user id is required (PIXIV_TARGET_USER_ID or --user)")
	}
	if _, err := exec.LookPath(c.Aria2cPath); err != nil {
		return fmt.Errorf(
			"aria2c not found at %q, install it from https://aria2.github.io/ or set ARIA2C_PATH",
			c.Aria2cPath,
		)
	}
	if _, err := exec.LookPath(c.ExiftoolPath); err != nil {
		return fmt.Errorf(
			"exiftool not found at %q, install it from https://exiftool.org/ or set EXIFTOOL_PATH",
			c.ExiftoolPath,
		)
	}
	return nil
}

// LoadSessionCookies reads the configured cookie file.
// A missing file yields no cookies, restricted works will then be skipped.
func (c *Config) LoadSessionCookies() ([]*http.Cookie, error) {
	if c.CookieFile == "" {
		return nil, nil
	}
	return utils.LoadCookiesFromFile(c.CookieFile)
}
