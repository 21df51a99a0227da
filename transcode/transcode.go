package transcode

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"

	// Decoders for the formats Pixiv serves originals in.
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const JPEG_QUALITY = 85

// ToJpeg re-encodes a static image file as a JPEG at srcPath's quality
// ceiling. Transparent sources are flattened onto white since JPEG has
// no alpha channel. On any failure no output file is left behind.
func ToJpeg(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return &TranscodeError{Path: srcPath, Err: err}
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		return &TranscodeError{
			Path: srcPath,
			Err:  fmt.Errorf("failed to decode image: %w", err),
		}
	}

	bounds := decoded.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, decoded, bounds.Min, draw.Over)

	return writeAtomically(destPath, func(out *os.File) error {
		return jpeg.Encode(out, canvas, &jpeg.Options{Quality: JPEG_QUALITY})
	})
}

// ReencodeGif rewrites an animated GIF source as the compressed
// rendition, keeping its per-frame delays and loop count. Frames are
// rebuilt the same way as ugoira animations: each one composited over
// the first frame, so transparent or partial frames come out as the
// full opaque image a player would show.
func ReencodeGif(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return &TranscodeError{Path: srcPath, Err: err}
	}
	defer src.Close()

	decoded, err := gif.DecodeAll(src)
	if err != nil {
		return &TranscodeError{
			Path: srcPath,
			Err:  fmt.Errorf("failed to decode gif: %w", err),
		}
	}
	if len(decoded.Image) == 0 {
		return &TranscodeError{
			Path: srcPath,
			Err:  fmt.Errorf("gif has no frames"),
		}
	}

	background := decoded.Image[0]
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(decoded.Image)),
		Delay:     decoded.Delay,
		LoopCount: decoded.LoopCount,
	}
	for _, frame := range decoded.Image {
		anim.Image = append(anim.Image, flattenFrame(background, frame))
	}

	return writeAtomically(destPath, func(out *os.File) error {
		return gif.EncodeAll(out, anim)
	})
}

// flattenFrame composites one animation frame over the opaque
// background and quantizes the result for GIF output.
func flattenFrame(background, frame image.Image) *image.Paletted {
	bounds := background.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, background, bounds.Min, draw.Src)
	draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, bounds, canvas, bounds.Min)
	return paletted
}

// writeAtomically encodes into a temp file in destPath's directory and
// renames it into place, so a failed encode never leaves a partial
// compressed file for a later resumed run to mistake for a finished one.
func writeAtomically(destPath string, encode func(*os.File) error) error {
	out, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*")
	if err != nil {
		return &TranscodeError{Path: destPath, Err: err}
	}
	tmpPath := out.Name()

	if err := encode(out); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return &TranscodeError{Path: destPath, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return &TranscodeError{Path: destPath, Err: err}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return &TranscodeError{Path: destPath, Err: err}
	}
	return nil
}
