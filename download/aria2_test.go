package download

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hayasui/pixiv-bookmark-mirror/configs"
)

func testAgent(proxy string, cookies []*http.Cookie) *Agent {
	return NewAgent(&configs.Config{
		UserAgent:       "test-agent",
		Proxy:           proxy,
		Aria2cPath:      "aria2c",
		DownloadRetries: 5,
		RetryDelay:      time.Second,
		DownloadTimeout: time.Minute,
	}, cookies, zap.NewNop().Sugar())
}

func TestDownloadUrlDoesNotSleepAfterFinalAttempt(t *testing.T) {
	agent := NewAgent(&configs.Config{
		UserAgent:       "test-agent",
		Aria2cPath:      "/bin/false",
		DownloadRetries: 1,
		RetryDelay:      time.Second,
		DownloadTimeout: time.Minute,
	}, nil, zap.NewNop().Sugar())

	start := time.Now()
	err := agent.DownloadUrl(
		context.Background(),
		"https://i.pximg.net/101_p0.png",
		filepath.Join(t.TempDir(), "101_p0.png"),
		false,
	)
	elapsed := time.Since(start)

	require.Error(t, err)
	var downloadErr *DownloadError
	assert.ErrorAs(t, err, &downloadErr)
	// A single attempt has no follow-up, so the retry delay never runs.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestBuildArgs(t *testing.T) {
	agent := testAgent("", nil)
	savePath := filepath.Join("downloads", "Illustration", "101_p000 - title - author.png")

	args := agent.buildArgs("https://i.pximg.net/101_p0.png", savePath, false)

	assert.Contains(t, args, "--user-agent=test-agent")
	assert.Contains(t, args, "--referer=https://www.pixiv.net/")
	assert.Contains(t, args, "--dir="+filepath.Join("downloads", "Illustration"))
	assert.Contains(t, args, "--out=101_p000 - title - author.png")
	assert.Contains(t, args, "--max-tries=10")
	assert.Contains(t, args, "--continue=true")
	assert.Contains(t, args, "--check-integrity=true")
	assert.Contains(t, args, "--allow-overwrite=true")
	assert.Equal(t, "https://i.pximg.net/101_p0.png", args[len(args)-1])

	for _, arg := range args {
		assert.NotContains(t, arg, "--all-proxy")
		assert.NotContains(t, arg, "Cookie:")
	}
}

func TestBuildArgsWithProxyAndCookies(t *testing.T) {
	cookies := []*http.Cookie{
		{Name: "PHPSESSID", Value: "abc"},
		{Name: "device_token", Value: "def"},
	}
	agent := testAgent("http://127.0.0.1:7890", cookies)

	args := agent.buildArgs("https://i.pximg.net/101_p0.png", "101_p0.png", true)
	assert.Contains(t, args, "--all-proxy=http://127.0.0.1:7890")
	assert.Contains(t, args, "--header=Cookie: PHPSESSID=abc; device_token=def")

	// Cookies only ride along when the fetch needed the authenticated
	// session in the first place.
	args = agent.buildArgs("https://i.pximg.net/101_p0.png", "101_p0.png", false)
	for _, arg := range args {
		assert.NotContains(t, arg, "Cookie:")
	}
}
