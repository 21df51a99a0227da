package transcode

import (
	"archive/zip"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasui/pixiv-bookmark-mirror/models"
)

func solidFrame(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePng(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeUgoiraZip(t *testing.T, path string, frames map[string]image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, img := range frames {
		entry, err := zw.Create(name)
		require.NoError(t, err)
		require.NoError(t, png.Encode(entry, img))
	}
	require.NoError(t, zw.Close())
}

func TestToJpegFlattensAndWrites(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.png")
	destPath := filepath.Join(dir, "out.jpg")

	// Half-transparent source, JPEG output must still decode.
	writePng(t, srcPath, solidFrame(color.NRGBA{R: 255, A: 128}))
	require.NoError(t, ToJpeg(srcPath, destPath))

	out, err := os.Open(destPath)
	require.NoError(t, err)
	defer out.Close()

	decoded, format, err := image.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decoded.Bounds())
}

func TestToJpegLeavesNoOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.png")
	destPath := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(srcPath, []byte("not an image"), 0644))

	err := ToJpeg(srcPath, destPath)
	require.Error(t, err)
	var transcodeErr *TranscodeError
	assert.ErrorAs(t, err, &transcodeErr)
	assert.NoFileExists(t, destPath)
}

func TestUgoiraToGifPreservesDelays(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "101.zip")
	destPath := filepath.Join(dir, "101.gif")

	writeUgoiraZip(t, zipPath, map[string]image.Image{
		"000000.png": solidFrame(color.NRGBA{R: 255, A: 255}),
		"000001.png": solidFrame(color.NRGBA{G: 255, A: 255}),
		"000002.png": solidFrame(color.NRGBA{B: 255, A: 255}),
	})
	frames := []models.UgoiraFrame{
		{File: "000000.png", Delay: 100},
		{File: "000001.png", Delay: 150},
		{File: "000002.png", Delay: 200},
	}

	require.NoError(t, UgoiraToGif(zipPath, destPath, frames))

	out, err := os.Open(destPath)
	require.NoError(t, err)
	defer out.Close()

	anim, err := gif.DecodeAll(out)
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	assert.Equal(t, []int{10, 15, 20}, anim.Delay)
	assert.Equal(t, 0, anim.LoopCount)
}

func TestUgoiraToGifTruncatesToBundledFrames(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "101.zip")
	destPath := filepath.Join(dir, "101.gif")

	// Metadata lists three frames but the bundle only has two.
	writeUgoiraZip(t, zipPath, map[string]image.Image{
		"000000.png": solidFrame(color.NRGBA{R: 255, A: 255}),
		"000001.png": solidFrame(color.NRGBA{G: 255, A: 255}),
	})
	frames := []models.UgoiraFrame{
		{File: "000000.png", Delay: 100},
		{File: "000001.png", Delay: 150},
		{File: "000002.png", Delay: 200},
	}

	require.NoError(t, UgoiraToGif(zipPath, destPath, frames))

	out, err := os.Open(destPath)
	require.NoError(t, err)
	defer out.Close()

	anim, err := gif.DecodeAll(out)
	require.NoError(t, err)
	require.Len(t, anim.Image, 2)
	assert.Equal(t, []int{10, 15}, anim.Delay)
}

func TestUgoiraToGifRejectsEmptyMetadata(t *testing.T) {
	dir := t.TempDir()
	err := UgoiraToGif(filepath.Join(dir, "101.zip"), filepath.Join(dir, "101.gif"), nil)
	require.Error(t, err)
}

func TestReencodeGifFlattensTransparentFrames(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.gif")
	destPath := filepath.Join(dir, "out.gif")

	gifPalette := color.Palette{color.White, color.Transparent}
	opaque := image.NewPaletted(image.Rect(0, 0, 4, 4), gifPalette)
	transparent := image.NewPaletted(image.Rect(0, 0, 4, 4), gifPalette)
	for i := range transparent.Pix {
		transparent.Pix[i] = 1
	}

	src, err := os.Create(srcPath)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(src, &gif.GIF{
		Image: []*image.Paletted{opaque, transparent},
		Delay: []int{10, 10},
	}))
	require.NoError(t, src.Close())

	require.NoError(t, ReencodeGif(srcPath, destPath))

	out, err := os.Open(destPath)
	require.NoError(t, err)
	defer out.Close()

	anim, err := gif.DecodeAll(out)
	require.NoError(t, err)
	require.Len(t, anim.Image, 2)

	// The fully transparent frame is composited over the first frame,
	// so it comes out as solid white instead of keeping its alpha.
	r, g, b, a := anim.Image[1].At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestReencodeGifKeepsAnimation(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.gif")
	destPath := filepath.Join(dir, "out.gif")

	paletted := func(c color.Color) *image.Paletted {
		img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, c})
		for i := range img.Pix {
			img.Pix[i] = 1
		}
		return img
	}
	src, err := os.Create(srcPath)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(src, &gif.GIF{
		Image:     []*image.Paletted{paletted(color.White), paletted(color.Black)},
		Delay:     []int{12, 34},
		LoopCount: 0,
	}))
	require.NoError(t, src.Close())

	require.NoError(t, ReencodeGif(srcPath, destPath))

	out, err := os.Open(destPath)
	require.NoError(t, err)
	defer out.Close()

	anim, err := gif.DecodeAll(out)
	require.NoError(t, err)
	require.Len(t, anim.Image, 2)
	assert.Equal(t, []int{12, 34}, anim.Delay)
}
