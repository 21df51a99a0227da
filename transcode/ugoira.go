package transcode

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"

	"github.com/hayasui/pixiv-bookmark-mirror/models"
	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// UgoiraToGif rebuilds the animation from a downloaded ugoira frame
// bundle and writes it as an animated GIF.
//
// The bundle is a zip of per-frame images; the frame metadata carries
// the playback order and the per-frame display delay in milliseconds.
// Frames are composited over the first frame so partially transparent
// frames render the way Pixiv's own player shows them. When the bundle
// and the metadata disagree on frame count, the animation is truncated
// to the shorter of the two.
func UgoiraToGif(zipPath, destPath string, frames []models.UgoiraFrame) error {
	if len(frames) == 0 {
		return &TranscodeError{
			Path: zipPath,
			Err:  fmt.Errorf("ugoira has no frame metadata"),
		}
	}

	frameDir, err := os.MkdirTemp(filepath.Dir(zipPath), ".ugoira-*")
	if err != nil {
		return &TranscodeError{Path: zipPath, Err: err}
	}
	defer os.RemoveAll(frameDir)

	if err := utils.ExtractFiles(context.Background(), zipPath, frameDir, false); err != nil {
		return &TranscodeError{
			Path: zipPath,
			Err:  fmt.Errorf("failed to extract frame bundle: %w", err),
		}
	}

	decoded := make([]image.Image, 0, len(frames))
	for _, frame := range frames {
		framePath := filepath.Join(frameDir, frame.File)
		if !utils.PathExists(framePath) {
			break
		}
		img, err := decodeFrame(framePath)
		if err != nil {
			return &TranscodeError{Path: framePath, Err: err}
		}
		decoded = append(decoded, img)
	}
	if len(decoded) == 0 {
		return &TranscodeError{
			Path: zipPath,
			Err:  fmt.Errorf("frame bundle contains none of the %d listed frames", len(frames)),
		}
	}

	frameCount := len(decoded)
	if len(frames) < frameCount {
		frameCount = len(frames)
	}

	background := decoded[0]
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, frameCount),
		Delay:     make([]int, 0, frameCount),
		LoopCount: 0,
	}
	for i := 0; i < frameCount; i++ {
		anim.Image = append(anim.Image, flattenFrame(background, decoded[i]))
		// GIF delays are in centiseconds.
		anim.Delay = append(anim.Delay, int(frames[i].Delay/10))
	}

	return writeAtomically(destPath, func(out *os.File) error {
		return gif.EncodeAll(out, anim)
	})
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}
