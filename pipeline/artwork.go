package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hayasui/pixiv-bookmark-mirror/models"
	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// rawPath is where the original of one image lands, grouped by type:
// <RawDir>/<Illustration|Manga|Ugoira>/<id>_p<index> - <title> - <author>.<ext>
func (p *Pipeline) rawPath(artwork *models.Artwork, image *models.Image) string {
	return filepath.Join(
		p.config.RawDir,
		artwork.Type.String(),
		utils.GetImageFilename(artwork.ID, image.Index, artwork.Title, artwork.UserName, image.Ext),
	)
}

// compressedExt picks the rendition format: animations stay animated
// as GIF, everything else becomes JPEG.
func compressedExt(image *models.Image) string {
	switch image.Ext {
	case "zip", "gif":
		return "gif"
	default:
		return "jpg"
	}
}

func (p *Pipeline) compressedPath(artwork *models.Artwork, image *models.Image) string {
	return filepath.Join(
		p.config.CompressedDir,
		artwork.Type.String(),
		utils.GetImageFilename(artwork.ID, image.Index, artwork.Title, artwork.UserName, compressedExt(image)),
	)
}

// processArtwork mirrors every image of one artwork and, only when all
// of them succeeded, persists the artwork record itself. Images are
// persisted individually as they complete, so a partial failure keeps
// the finished images and the absent artwork row makes the next run
// retry just the missing ones.
func (p *Pipeline) processArtwork(ctx context.Context, task *artworkTask) []*taggingTask {
	artwork := task.artwork

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.config.ImageWorkers)

	var mu sync.Mutex
	mirrored := make([]*taggingTask, 0, len(task.images))
	failed := 0

	for _, image := range task.images {
		image := image
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()

			if err := p.processImage(ctx, task, image); err != nil {
				p.logger.Errorw(
					"failed to mirror image",
					"imageId", image.ID,
					"url", image.URL,
					"error", err,
				)
				p.update(func(s *RunStats) { s.ImagesFailed++ })
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			p.update(func(s *RunStats) { s.ImagesMirrored++ })
			mu.Lock()
			mirrored = append(mirrored, &taggingTask{artwork: artwork, image: image})
			mu.Unlock()
		}()
	}
	wg.Wait()

	if failed > 0 {
		p.logger.Warnw(
			"artwork left unrecorded, some images failed",
			"artworkId", artwork.ID,
			"failed", failed,
			"total", len(task.images),
		)
		p.update(func(s *RunStats) { s.ArtworksFailed++ })
		return mirrored
	}

	if err := p.store.UpsertBookmark(artwork); err != nil {
		p.logger.Errorw("failed to persist artwork", "artworkId", artwork.ID, "error", err)
		p.update(func(s *RunStats) { s.ArtworksFailed++ })
		return mirrored
	}
	p.update(func(s *RunStats) { s.ArtworksMirrored++ })
	return mirrored
}

// processImage takes one image through download, transcode and
// persistence. Work already completed by an earlier interrupted run is
// reused instead of redone.
func (p *Pipeline) processImage(ctx context.Context, task *artworkTask, image *models.Image) error {
	artwork := task.artwork

	existing, err := p.store.GetImage(image.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.CompressedPath != "" && utils.PathExists(existing.CompressedPath) {
		image.OriginalPath = existing.OriginalPath
		image.CompressedPath = existing.CompressedPath
		return nil
	}

	// An interrupted earlier run can leave a zero-byte raw file behind.
	// Trusting it would fail the transcode on every run without ever
	// re-downloading, so only a non-empty raw file skips the download.
	savePath := p.rawPath(artwork, image)
	if size, sizeErr := utils.GetFileSize(savePath); sizeErr != nil || size == 0 {
		if sizeErr == nil {
			os.Remove(savePath)
		}
		if err := p.downloader.DownloadUrl(ctx, image.URL, savePath, task.usedAuth); err != nil {
			return err
		}
	}

	destPath := p.compressedPath(artwork, image)
	if err := p.withRetries(func() error {
		return p.transcodeImage(artwork, image, savePath, destPath)
	}); err != nil {
		return err
	}

	image.OriginalPath = savePath
	image.CompressedPath = destPath
	return p.store.UpsertImage(image)
}

// withRetries runs op under the same bounded-retry policy as
// downloads. The conversions write atomically, so a failed attempt
// leaves nothing to clean up before the next one.
func (p *Pipeline) withRetries(op func() error) error {
	var err error
	for attempt := 1; attempt <= p.config.DownloadRetries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt < p.config.DownloadRetries {
			time.Sleep(p.config.RetryDelay)
		}
	}
	return err
}

func (p *Pipeline) transcodeImage(artwork *models.Artwork, image *models.Image, savePath, destPath string) error {
	switch {
	case artwork.Type == models.UGOIRA:
		var frames []models.UgoiraFrame
		if artwork.UgoiraInfo != nil {
			frames = artwork.UgoiraInfo.Frames
		}
		return p.transcoder.UgoiraToGif(savePath, destPath, frames)
	case image.Ext == "gif":
		return p.transcoder.ReencodeGif(savePath, destPath)
	default:
		return p.transcoder.ToJpeg(savePath, destPath)
	}
}
