package downloader

import (
	"context"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"

	"boostysync/pkg/boosty"
	"boostysync/pkg/logger"
	"boostysync/pkg/media"
	"boostysync/pkg/mp4meta"
	"boostysync/pkg/retry"
	"boostysync/pkg/stats"
	"boostysync/pkg/storage"
)

// Downloader drains one media pool to disk. Every item gets its own goroutine
// gated by a weighted semaphore, so at most maxParallel downloads are in
// flight while admission stays cheap. One failed item never aborts its
// siblings; failures are counted and reported at the end of the run.
type Downloader struct {
	client   *boosty.Client
	pool     *media.Pool
	basePath string
	sem      *semaphore.Weighted
	saveMeta bool
	tracker  *stats.Tracker
	log      logger.Logger
}

// New creates a downloader over a finished media pool rooted at basePath.
func New(client *boosty.Client, pool *media.Pool, basePath string, maxParallel int, saveMeta bool, tracker *stats.Tracker) *Downloader {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Downloader{
		client:   client,
		pool:     pool,
		basePath: basePath,
		sem:      semaphore.NewWeighted(int64(maxParallel)),
		saveMeta: saveMeta,
		tracker:  tracker,
		log:      logger.GetLogger(),
	}
}

// DownloadPhotos saves every retained image as photos/<id>.jpg.
func (d *Downloader) DownloadPhotos(ctx context.Context) error {
	dir := filepath.Join(d.basePath, "photos")
	if err := storage.EnsureDir(dir); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, image := range d.pool.Images() {
		image := image
		path := filepath.Join(dir, image.ID+".jpg")
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.fetchOne(ctx, stats.KindPhoto, image.ID, image.URL, path, nil)
		}()
	}
	wg.Wait()
	return nil
}

// DownloadVideos saves every retained video as videos/<id>.mp4, embedding
// title and cover metadata when enabled.
func (d *Downloader) DownloadVideos(ctx context.Context) error {
	dir := filepath.Join(d.basePath, "videos")
	if err := storage.EnsureDir(dir); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, video := range d.pool.Videos() {
		video := video
		path := filepath.Join(dir, video.ID+".mp4")
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.fetchOne(ctx, stats.KindVideo, video.ID, video.URL, path, video.Meta)
		}()
	}
	wg.Wait()
	return nil
}

// DownloadAudios saves every retained audio as audios/<id>.mp3.
func (d *Downloader) DownloadAudios(ctx context.Context) error {
	dir := filepath.Join(d.basePath, "audios")
	if err := storage.EnsureDir(dir); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, audio := range d.pool.Audios() {
		audio := audio
		path := filepath.Join(dir, audio.ID+".mp3")
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.fetchOne(ctx, stats.KindAudio, audio.ID, audio.URL, path, nil)
		}()
	}
	wg.Wait()
	return nil
}

// DownloadFiles saves every retained attachment as files/<title>, keeping the
// uploaded filename.
func (d *Downloader) DownloadFiles(ctx context.Context) error {
	dir := filepath.Join(d.basePath, "files")
	if err := storage.EnsureDir(dir); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, file := range d.pool.Files() {
		file := file
		path := filepath.Join(dir, file.Title)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.fetchOne(ctx, stats.KindFile, file.ID, file.URL, path, nil)
		}()
	}
	wg.Wait()
	return nil
}

// fetchOne downloads one item under the admission gate. An item already on
// disk counts as passed without a network call.
func (d *Downloader) fetchOne(ctx context.Context, kind stats.Kind, id, url, path string, meta *media.VideoMeta) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.tracker.AddError(kind, id, url, err)
		return
	}
	defer d.sem.Release(1)

	if storage.FileExists(path) {
		d.log.DebugWithFields("pass saving file, already exists", map[string]interface{}{
			"path": path,
		})
		d.tracker.AddPassed(kind)
		return
	}

	cfg := retry.DefaultConfig()
	cfg.Context = ctx
	err := retry.Do(func() error {
		return d.client.DownloadFile(ctx, url, path)
	}, cfg)
	if err != nil {
		d.log.WarnWithFields("download failed", map[string]interface{}{
			"kind":  string(kind),
			"url":   url,
			"error": err.Error(),
		})
		d.tracker.AddError(kind, id, url, err)
		return
	}

	d.tracker.AddDownloaded(kind)

	if d.saveMeta && meta != nil {
		d.writeVideoMeta(ctx, path, meta)
	}
}

func (d *Downloader) writeVideoMeta(ctx context.Context, path string, meta *media.VideoMeta) {
	tags := mp4meta.Tags{Title: meta.Title}
	if meta.PreviewURL != "" {
		cfg := retry.DefaultConfig()
		cfg.Context = ctx
		cover, err := retry.DoWithResult(func() ([]byte, error) {
			return d.client.FetchBytes(ctx, meta.PreviewURL)
		}, cfg)
		if err != nil {
			d.log.DebugWithFields("failed to fetch video cover", map[string]interface{}{
				"url":   meta.PreviewURL,
				"error": err.Error(),
			})
		} else {
			tags.Cover = cover
		}
	}
	mp4meta.BestEffortWrite(path, tags)
}
