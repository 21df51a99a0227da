package pipeline

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hayasui/pixiv-bookmark-mirror/api/pixiv"
	"github.com/hayasui/pixiv-bookmark-mirror/configs"
	"github.com/hayasui/pixiv-bookmark-mirror/models"
)

// Store is the slice of the mirror database the pipeline needs.
type Store interface {
	BookmarkIDSet() (map[int64]struct{}, error)
	UpsertBookmark(artwork *models.Artwork) error
	UpsertImage(image *models.Image) error
	GetBookmark(artworkId int64) (*models.Artwork, error)
	GetImage(imageId string) (*models.Image, error)
}

// BookmarkApi is the remote side: the bookmark diff and the per-artwork
// detail fetch.
type BookmarkApi interface {
	SyncNewBookmarks(localIds map[int64]struct{}) ([]*pixiv.BookmarkSummary, error)
	GetIllustDetails(artworkId int64) (*pixiv.DetailResult, error)
}

// Downloader fetches one remote asset to a local path.
type Downloader interface {
	DownloadUrl(ctx context.Context, url, savePath string, withAuth bool) error
}

// Transcoder produces the compressed rendition of a downloaded asset.
type Transcoder interface {
	ToJpeg(srcPath, destPath string) error
	ReencodeGif(srcPath, destPath string) error
	UgoiraToGif(zipPath, destPath string, frames []models.UgoiraFrame) error
}

// Tagger embeds artwork metadata into a compressed file.
type Tagger interface {
	Apply(image *models.Image, artwork *models.Artwork) error
}

// RunStats aggregates what one run did. Failed counts cover work that
// was skipped this run and will be picked up again by the next one.
type RunStats struct {
	NewBookmarks     int
	Tombstones       int
	ArtworksMirrored int
	ArtworksFailed   int
	ImagesMirrored   int
	ImagesFailed     int
	ImagesTagged     int
	TaggingFailed    int
}

// Pipeline wires the sync stages together: diff, detail fetch, build,
// download and transcode, persist, tag. Every stage contains its
// failures to the single artwork (or image) they concern.
type Pipeline struct {
	config     *configs.Config
	store      Store
	api        BookmarkApi
	downloader Downloader
	transcoder Transcoder
	tagger     Tagger
	logger     *zap.SugaredLogger

	// OnArtworkDone, when set, is called after each artwork finishes
	// the download stage (in any state). Drives progress display.
	OnArtworkDone func()

	mu    sync.Mutex
	stats RunStats
}

func New(
	config *configs.Config,
	store Store,
	api BookmarkApi,
	downloader Downloader,
	transcoder Transcoder,
	tagger Tagger,
	logger *zap.SugaredLogger,
) *Pipeline {
	return &Pipeline{
		config:     config,
		store:      store,
		api:        api,
		downloader: downloader,
		transcoder: transcoder,
		tagger:     tagger,
		logger:     logger,
	}
}

// artworkTask is one live bookmark that passed the build stage and is
// ready for the download stage.
type artworkTask struct {
	artwork  *models.Artwork
	images   []*models.Image
	usedAuth bool
}

// taggingTask is one mirrored image ready for metadata embedding.
type taggingTask struct {
	artwork *models.Artwork
	image   *models.Image
}

// Run executes one full sync. A failure before any artwork processing
// starts (listing the local ids, paging the remote listing) aborts the
// run; everything after that is contained per artwork.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	p.mu.Lock()
	p.stats = RunStats{}
	p.mu.Unlock()

	localIds, err := p.store.BookmarkIDSet()
	if err != nil {
		return nil, err
	}
	p.logger.Infow("loaded local mirror state", "bookmarks", len(localIds))

	summaries, err := p.api.SyncNewBookmarks(localIds)
	if err != nil {
		return nil, err
	}
	p.update(func(s *RunStats) { s.NewBookmarks = len(summaries) })

	live := p.processTombstones(summaries)
	p.logger.Infow(
		"diff complete",
		"new", len(summaries),
		"live", len(live),
		"tombstones", len(summaries)-len(live),
	)

	tasks := p.fetchAndBuild(live)
	p.logger.Infow("details fetched", "artworks", len(tasks), "failed", len(live)-len(tasks))

	taggingTasks := p.mirrorArtworks(ctx, tasks)
	p.logger.Infow("download stage complete", "images", len(taggingTasks))

	p.tagImages(taggingTasks)

	p.mu.Lock()
	stats := p.stats
	p.mu.Unlock()
	p.logger.Infow(
		"sync finished",
		"artworksMirrored", stats.ArtworksMirrored,
		"imagesMirrored", stats.ImagesMirrored,
		"imagesTagged", stats.ImagesTagged,
		"tombstones", stats.Tombstones,
	)
	return &stats, nil
}

func (p *Pipeline) update(fn func(*RunStats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

// processTombstones persists a tombstone for every summary whose work
// was removed upstream and returns the rest. Tombstones bypass detail
// fetch and download entirely: there is nothing left to fetch.
func (p *Pipeline) processTombstones(summaries []*pixiv.BookmarkSummary) []*pixiv.BookmarkSummary {
	live := make([]*pixiv.BookmarkSummary, 0, len(summaries))
	for _, summary := range summaries {
		if !summary.IsDeleted() {
			live = append(live, summary)
			continue
		}

		id, _ := summary.IDNum()
		existing, err := p.store.GetBookmark(id)
		if err != nil {
			p.logger.Errorw("failed to look up tombstone target", "artworkId", id, "error", err)
		}
		if err := p.store.UpsertBookmark(pixiv.BuildTombstone(id, existing)); err != nil {
			p.logger.Errorw("failed to persist tombstone", "artworkId", id, "error", err)
			continue
		}
		p.update(func(s *RunStats) { s.Tombstones++ })
	}
	return live
}

// fetchAndBuild retrieves details for every live summary concurrently
// and maps them into artwork tasks. A summary whose fetch or build
// fails is dropped from this run with its failure logged.
func (p *Pipeline) fetchAndBuild(summaries []*pixiv.BookmarkSummary) []*artworkTask {
	var wg sync.WaitGroup
	maxConcurrency := p.config.DetailWorkers
	if len(summaries) < maxConcurrency {
		maxConcurrency = len(summaries)
	}
	if maxConcurrency == 0 {
		return nil
	}
	pool, _ := ants.NewPool(maxConcurrency)
	defer pool.Release()

	var mu sync.Mutex
	var tasks []*artworkTask
	for _, summary := range summaries {
		summary := summary
		wg.Add(1)
		_ = pool.Submit(func() {
			defer wg.Done()
			id, _ := summary.IDNum()

			result, err := p.api.GetIllustDetails(id)
			if err != nil {
				p.logger.Errorw("skipping artwork, detail fetch failed", "artworkId", id, "error", err)
				p.update(func(s *RunStats) { s.ArtworksFailed++ })
				return
			}

			artwork, images, err := pixiv.BuildArtwork(id, result)
			if err != nil {
				p.logger.Errorw("skipping artwork, payload rejected", "artworkId", id, "error", err)
				p.update(func(s *RunStats) { s.ArtworksFailed++ })
				return
			}

			mu.Lock()
			tasks = append(tasks, &artworkTask{
				artwork:  artwork,
				images:   images,
				usedAuth: result.UsedAuth,
			})
			mu.Unlock()
		})
	}
	wg.Wait()
	return tasks
}

// mirrorArtworks runs the download stage over all tasks and returns
// the tagging work for every image that made it to disk.
func (p *Pipeline) mirrorArtworks(ctx context.Context, tasks []*artworkTask) []*taggingTask {
	var wg sync.WaitGroup
	maxConcurrency := p.config.ArtworkWorkers
	if len(tasks) < maxConcurrency {
		maxConcurrency = len(tasks)
	}
	if maxConcurrency == 0 {
		return nil
	}
	pool, _ := ants.NewPool(maxConcurrency)
	defer pool.Release()

	var mu sync.Mutex
	var taggingTasks []*taggingTask
	for _, task := range tasks {
		task := task
		wg.Add(1)
		_ = pool.Submit(func() {
			defer wg.Done()
			mirrored := p.processArtwork(ctx, task)

			mu.Lock()
			taggingTasks = append(taggingTasks, mirrored...)
			mu.Unlock()

			if p.OnArtworkDone != nil {
				p.OnArtworkDone()
			}
		})
	}
	wg.Wait()
	return taggingTasks
}

// tagImages embeds metadata into every mirrored image. Tagging runs
// after persistence on purpose: a tagging failure must not undo a
// completed mirror, the next run simply will not re-tag it either, so
// failures here are surfaced loudly in the log.
func (p *Pipeline) tagImages(tasks []*taggingTask) {
	var wg sync.WaitGroup
	maxConcurrency := p.config.TagWorkers
	if len(tasks) < maxConcurrency {
		maxConcurrency = len(tasks)
	}
	if maxConcurrency == 0 {
		return
	}
	pool, _ := ants.NewPool(maxConcurrency)
	defer pool.Release()

	for _, task := range tasks {
		task := task
		wg.Add(1)
		_ = pool.Submit(func() {
			defer wg.Done()
			if err := p.tagger.Apply(task.image, task.artwork); err != nil {
				p.logger.Errorw(
					"failed to tag image",
					"imageId", task.image.ID,
					"path", task.image.CompressedPath,
					"error", err,
				)
				p.update(func(s *RunStats) { s.TaggingFailed++ })
				return
			}
			p.update(func(s *RunStats) { s.ImagesTagged++ })
		})
	}
	wg.Wait()
}
