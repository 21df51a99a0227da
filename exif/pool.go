package exif

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hayasui/pixiv-bookmark-mirror/models"
	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// Subject markers added alongside the artwork's own tags so a gallery
// can filter mirrored files by origin, work, author and state.
const (
	SUBJECT_PIXIV   = "[pixiv]"
	SUBJECT_DELETED = "[已删除]"
	SUBJECT_AI      = "AI生成"
)

// Pool owns a fixed set of stay-open exiftool workers. Apply checks a
// worker out for the duration of one file and checks it back in on
// every exit path, so up to N files are tagged concurrently and no
// handle is ever shared between two tasks at once.
type Pool struct {
	handles chan *Worker
	workers []*Worker
	logger  *zap.SugaredLogger
}

func NewPool(exiftoolPath string, size int, logger *zap.SugaredLogger) (*Pool, error) {
	pool := &Pool{
		handles: make(chan *Worker, size),
		workers: make([]*Worker, 0, size),
		logger:  logger,
	}
	for i := 0; i < size; i++ {
		worker, err := NewWorker(exiftoolPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to spawn exiftool worker %d: %w", i, err)
		}
		pool.workers = append(pool.workers, worker)
		pool.handles <- worker
	}
	return pool, nil
}

// BuildTagArgs assembles the exiftool argument list that embeds the
// artwork's metadata into one compressed file.
func BuildTagArgs(image *models.Image, artwork *models.Artwork) []string {
	subjects := []string{
		SUBJECT_PIXIV,
		fmt.Sprintf("id:%d", image.IDNum),
		fmt.Sprintf("user:%d", artwork.UserID),
	}
	if image.IsDeleted {
		subjects = append(subjects, SUBJECT_DELETED)
	}
	if artwork.IsAiGenerated() {
		subjects = append(subjects, SUBJECT_AI)
	}
	for _, tag := range artwork.Tags {
		subjects = append(subjects, tag.DisplayTag())
	}

	args := []string{
		fmt.Sprintf("-XMP-dc:title=%03d %s", image.Index, artwork.Title),
		"-XMP-dc:description=" + artwork.Comment,
		"-XMP-dc:Creator=" + artwork.UserName,
		fmt.Sprintf("-XMP-dc:source=%s/artworks/%d", utils.PIXIV_URL, image.IDNum),
	}
	if artwork.Timestamp.Unix() > 0 {
		args = append(args, "-DateTimeOriginal="+artwork.Timestamp.Format(utils.EXIF_TIME_FORMAT))
	} else {
		args = append(args, "-DateTimeOriginal="+utils.FALLBACK_EXIF_TIME)
	}
	for _, subject := range subjects {
		args = append(args, "-XMP-dc:Subject="+subject)
	}
	return append(args, "-overwrite_original", image.CompressedPath)
}

// Apply writes the artwork's metadata into the image's compressed file.
func (p *Pool) Apply(image *models.Image, artwork *models.Artwork) error {
	if image.CompressedPath == "" {
		return &TaggingError{
			Path: image.ID,
			Err:  fmt.Errorf("image has no compressed file to tag"),
		}
	}

	worker := <-p.handles
	defer func() {
		p.handles <- worker
	}()

	if err := worker.Execute(BuildTagArgs(image, artwork)...); err != nil {
		return &TaggingError{Path: image.CompressedPath, Err: err}
	}
	return nil
}

// Close shuts down every worker. Always runs through the whole set so
// one stuck worker does not leak the rest.
func (p *Pool) Close() {
	for _, worker := range p.workers {
		if err := worker.Close(); err != nil {
			p.logger.Warnw("exiftool worker did not shut down cleanly", "error", err)
		}
	}
}
