package download

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hayasui/pixiv-bookmark-mirror/configs"
	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// Agent drives an external aria2c process for bulk transfer. aria2c
// handles segmented downloads, resume and integrity checking itself;
// this wrapper adds the Pixiv request identity (referer, user agent,
// optional session cookies) and a bounded outer retry loop.
type Agent struct {
	config  *configs.Config
	cookies []*http.Cookie
	logger  *zap.SugaredLogger
}

func NewAgent(config *configs.Config, cookies []*http.Cookie, logger *zap.SugaredLogger) *Agent {
	return &Agent{
		config:  config,
		cookies: cookies,
		logger:  logger,
	}
}

func (a *Agent) buildArgs(url, savePath string, withAuth bool) []string {
	args := []string{
		"--user-agent=" + a.config.UserAgent,
		"--referer=" + utils.PIXIV_URL + "/",
		"--dir=" + filepath.Dir(savePath),
		"--out=" + filepath.Base(savePath),
		"--max-tries=10",
		"--retry-wait=1",
		"--timeout=30",
		"--continue=true",
		"--check-integrity=true",
		"--allow-overwrite=true",
	}
	if a.config.Proxy != "" {
		args = append(args, "--all-proxy="+a.config.Proxy)
	}
	if withAuth && len(a.cookies) > 0 {
		args = append(args, "--header=Cookie: "+utils.CookieHeaderValue(a.cookies))
	}
	return append(args, url)
}

func (a *Agent) runOnce(ctx context.Context, url, savePath string, withAuth bool) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.DownloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.config.Aria2cPath, a.buildArgs(url, savePath, withAuth)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		details := []string{err.Error()}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			details = append(details, "stderr: "+msg)
		}
		if msg := strings.TrimSpace(stdout.String()); msg != "" {
			details = append(details, "stdout: "+msg)
		}
		return fmt.Errorf("aria2c failed: %s", strings.Join(details, "; "))
	}

	// aria2c can exit 0 without having written anything, e.g. when the
	// remote answered with an empty body.
	if size, err := utils.GetFileSize(savePath); err != nil || size == 0 {
		return fmt.Errorf("downloaded file is empty or missing")
	}
	return nil
}

// DownloadUrl fetches one asset to savePath, retrying a bounded number
// of times. A failed attempt removes whatever partial file it left so
// the next attempt (or a resumed run) starts from a clean slate.
func (a *Agent) DownloadUrl(ctx context.Context, url, savePath string, withAuth bool) error {
	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return &DownloadError{Url: url, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= a.config.DownloadRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return &DownloadError{Url: url, Err: err}
		}

		lastErr = a.runOnce(ctx, url, savePath, withAuth)
		if lastErr == nil {
			return nil
		}

		a.logger.Warnw(
			"download attempt failed",
			"url", url,
			"attempt", attempt,
			"maxAttempts", a.config.DownloadRetries,
			"error", lastErr,
		)
		if utils.PathExists(savePath) {
			os.Remove(savePath)
		}
		if attempt < a.config.DownloadRetries {
			time.Sleep(a.config.RetryDelay)
		}
	}
	return &DownloadError{Url: url, Err: lastErr}
}
