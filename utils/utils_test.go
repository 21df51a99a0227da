package utils

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "ab", SanitizeFilename(`a<>:"/\|?*b`))
	assert.Equal(t, "title", SanitizeFilename("  title  "))
	assert.Equal(t, "日本語タイトル", SanitizeFilename("日本語タイトル"))
}

func TestGetImageFilename(t *testing.T) {
	filename := GetImageFilename(101, 2, "some: title?", "the/author", "png")
	assert.Equal(t, "101_p002 - some title - theauthor.png", filename)
}

func TestGetExtFromUrl(t *testing.T) {
	assert.Equal(t, "png", GetExtFromUrl("https://i.pximg.net/img/101_p0.PNG?x=1"))
	assert.Equal(t, "jpg", GetExtFromUrl("https://i.pximg.net/img/101_p0.jpg"))
	assert.Equal(t, "zip", GetExtFromUrl("https://i.pximg.net/img-zip-ugoira/303.zip"))
	assert.Equal(t, "", GetExtFromUrl("https://i.pximg.net/img/no-extension"))
}

func TestGetLastPartOfUrl(t *testing.T) {
	assert.Equal(t, "101_p0.png", GetLastPartOfUrl("https://i.pximg.net/img/101_p0.png?x=1&y=2"))
}

func TestParseCookieString(t *testing.T) {
	cookies := ParseCookieString("PHPSESSID=abc; device_token=def")
	require.Len(t, cookies, 2)
	assert.Equal(t, "PHPSESSID", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, "pixiv.net", cookies[0].Domain)

	assert.Empty(t, ParseCookieString("   "))
}

func TestCookieHeaderValueRoundTrip(t *testing.T) {
	header := "PHPSESSID=abc; device_token=def"
	assert.Equal(t, header, CookieHeaderValue(ParseCookieString(header)))
}

func TestExtractFiles(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "frames.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("000000.jpg")
	require.NoError(t, err)
	_, err = entry.Write([]byte("frame"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	ctx := context.Background()
	dest := filepath.Join(dir, "out")
	require.NoError(t, ExtractFiles(ctx, zipPath, dest, false))
	assert.FileExists(t, filepath.Join(dest, "000000.jpg"))

	// Missing archives only pass when explicitly tolerated.
	missing := filepath.Join(dir, "nope.zip")
	require.Error(t, ExtractFiles(ctx, missing, dest, false))
	require.NoError(t, ExtractFiles(ctx, missing, dest, true))
}

func TestExtractFilesRejectsNonArchives(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "not-an-archive.zip")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0644))

	err := ExtractFiles(context.Background(), src, filepath.Join(dir, "out"), false)
	require.Error(t, err)
}

func TestGetRandomDelayBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		delay := GetRandomDelay()
		assert.GreaterOrEqual(t, delay, 500*time.Millisecond)
		assert.LessOrEqual(t, delay, time.Second)
	}
}
