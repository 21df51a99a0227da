package transcode

import "github.com/hayasui/pixiv-bookmark-mirror/models"

// Codec bundles the package's conversions behind a value type so
// callers can take them as a dependency.
type Codec struct{}

func (Codec) ToJpeg(srcPath, destPath string) error {
	return ToJpeg(srcPath, destPath)
}

func (Codec) ReencodeGif(srcPath, destPath string) error {
	return ReencodeGif(srcPath, destPath)
}

func (Codec) UgoiraToGif(zipPath, destPath string, frames []models.UgoiraFrame) error {
	return UgoiraToGif(zipPath, destPath, frames)
}
