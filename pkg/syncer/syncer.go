package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"boostysync/internal/downloader"
	"boostysync/internal/postmap"
	"boostysync/pkg/boosty"
	"boostysync/pkg/config"
	"boostysync/pkg/logger"
	"boostysync/pkg/media"
	"boostysync/pkg/post"
	"boostysync/pkg/ratelimit"
	"boostysync/pkg/stats"
	"boostysync/pkg/storage"
	"boostysync/pkg/syncstate"
)

// pageInterval is the polite gap between pagination requests.
const pageInterval = 500 * time.Millisecond

// Options selects what and how to sync.
type Options struct {
	Creator string
	// UseCookie sends authenticated headers on API calls and unlocks
	// audio/attached-file downloads.
	UseCookie bool
	// Resume continues interrupted streams from their persisted in-flight
	// cursors instead of restarting them.
	Resume bool
}

// Syncer runs one incremental sync for one creator: walk the enabled content
// streams, record cursors, then drain the collected pools to disk.
type Syncer struct {
	cfg       *config.Config
	client    *boosty.Client
	creator   string
	useCookie bool
	resume    bool

	layout  *storage.Layout
	state   *syncstate.State
	tracker *stats.Tracker
	pacer   ratelimit.Limiter
	log     logger.Logger
}

// New prepares a syncer: creates the creator's directory layout and loads or
// initializes its cursor store.
func New(cfg *config.Config, client *boosty.Client, opts Options) (*Syncer, error) {
	if opts.Creator == "" {
		return nil, fmt.Errorf("creator name is required")
	}

	layout, err := storage.NewLayout(cfg.File.SyncDir, opts.Creator)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		cfg:       cfg,
		client:    client,
		creator:   opts.Creator,
		useCookie: opts.UseCookie,
		resume:    opts.Resume,
		layout:    layout,
		tracker:   stats.NewTracker(),
		pacer:     ratelimit.NewInterval(pageInterval),
		log:       logger.GetLogger(),
	}

	if cfg.Content.SyncOffsetSave {
		state, err := syncstate.GetOrCreate(layout.SyncStatePath(), opts.Creator)
		if err != nil {
			return nil, err
		}
		if state.HasRuntimeOffsets() && !opts.Resume {
			s.log.Info("dropping interrupted cursors, restarting streams from the top")
			state.ClearRuntimeOffsets()
			if err := state.Save(); err != nil {
				return nil, err
			}
		}
		s.state = state
	}

	return s, nil
}

// HasInterruptedRun reports whether a state file at the creator's layout
// carries in-flight cursors from an interrupted run. Used before New to offer
// the resume choice.
func HasInterruptedRun(cfg *config.Config, creator string) bool {
	if !cfg.Content.SyncOffsetSave {
		return false
	}
	path := filepath.Join(cfg.File.SyncDir, creator, "__cache__", "sync_data.json")
	state, err := syncstate.Load(path)
	if err != nil {
		return false
	}
	return state.HasRuntimeOffsets()
}

// Tracker exposes the run's download statistics.
func (s *Syncer) Tracker() *stats.Tracker {
	return s.tracker
}

// Run executes the sync in the configured storage mode and finalizes the
// cursor store.
func (s *Syncer) Run(ctx context.Context) error {
	s.logCounters(ctx)

	var err error
	switch s.cfg.Content.StorageType {
	case config.StoragePost:
		err = s.syncPosts(ctx)
	default:
		err = s.syncMedia(ctx)
	}
	if err != nil {
		return err
	}

	if s.state != nil {
		s.state.SetLastSyncTime(time.Now())
		if err := s.state.Save(); err != nil {
			return err
		}
	}
	return nil
}

// logCounters reports the creator's public media counts. Best effort; the
// counters endpoint needs no auth and only feeds the log.
func (s *Syncer) logCounters(ctx context.Context) {
	counters, err := s.client.FetchCounters(ctx, s.creator)
	if err != nil {
		s.log.WarnWithFields("failed to fetch profile counters", map[string]interface{}{
			"creator": s.creator,
			"error":   err.Error(),
		})
		return
	}
	s.log.InfoWithFields("creator media counters", map[string]interface{}{
		"creator": s.creator,
		"photos":  counters.Photos,
		"videos":  counters.Videos,
		"audios":  counters.Audios,
	})
}

// syncMedia mirrors the creator's media albums into flat per-kind
// directories. Each enabled stream is walked concurrently into its own pool.
func (s *Syncer) syncMedia(ctx context.Context) error {
	if s.cfg.NeedFiles() {
		s.log.Warn("attached files are not available in media storage mode, use storage_type: post")
	}

	var photoPool, videoPool, audioPool *media.Pool

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.NeedPhotos() {
		photoPool = media.NewPool(s.mediaFlags())
		g.Go(func() error { return s.collectImages(gctx, photoPool) })
	}
	if s.cfg.NeedVideos() {
		videoPool = media.NewPool(s.mediaFlags())
		g.Go(func() error { return s.collectVideos(gctx, videoPool) })
	}
	if s.cfg.NeedAudios() {
		audioPool = media.NewPool(s.mediaFlags())
		g.Go(func() error { return s.collectAudios(gctx, audioPool) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	base := s.layout.BasePath()
	dg, dctx := errgroup.WithContext(ctx)
	if photoPool != nil {
		d := s.newDownloader(photoPool, base)
		dg.Go(func() error { return d.DownloadPhotos(dctx) })
	}
	if videoPool != nil {
		d := s.newDownloader(videoPool, base)
		dg.Go(func() error { return d.DownloadVideos(dctx) })
	}
	if audioPool != nil {
		if s.useCookie {
			d := s.newDownloader(audioPool, base)
			dg.Go(func() error { return d.DownloadAudios(dctx) })
		} else {
			s.log.Warn("can't download audio without authorization, fill auth fields in config")
		}
	}
	return dg.Wait()
}

// syncPosts creates one directory per post with its text document and media.
func (s *Syncer) syncPosts(ctx context.Context) error {
	postsPath := s.layout.PostsPath()
	if err := storage.EnsureDir(postsPath); err != nil {
		return err
	}

	var db *postmap.DB
	if s.cfg.Content.EnablePostMasquerade {
		var err error
		db, err = postmap.Open(s.layout.PostDBPath())
		if err != nil {
			s.log.ErrorWithFields("can't open post db, disable enable_post_masquerade if this persists", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
		defer db.Close()
	}

	pool := post.NewPool()
	if desired := s.cfg.Content.DesiredPostID; desired != "" {
		s.log.InfoWithFields("syncing a single post", map[string]interface{}{"post_id": desired})
		if err := s.collectSinglePost(ctx, pool, desired); err != nil {
			return err
		}
	} else {
		if err := s.collectPosts(ctx, pool); err != nil {
			return err
		}
	}

	for _, p := range pool.Posts() {
		if err := s.savePost(ctx, p, postsPath, db); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) collectSinglePost(ctx context.Context, pool *post.Pool, postID string) error {
	entry, err := s.client.FetchPost(ctx, s.creator, postID, s.useCookie)
	if err != nil {
		return fmt.Errorf("failed to fetch post %s: %w", postID, err)
	}
	if !entry.HasAccess {
		s.log.WarnWithFields("post is not accessible with current credentials", map[string]interface{}{
			"post_id": postID,
		})
		pool.Close()
		return nil
	}
	if err := pool.AddPost(s.buildPost(entry)); err != nil {
		return err
	}
	pool.Close()
	return nil
}

// savePost resolves the post's directory, writes its text document and drains
// its media pool.
func (s *Syncer) savePost(ctx context.Context, p *post.Post, postsPath string, db *postmap.DB) error {
	dir, err := s.resolvePostDir(p, postsPath, db)
	if err != nil {
		return err
	}
	if err := storage.EnsureDir(dir); err != nil {
		return err
	}

	ext := "txt"
	if s.cfg.Content.PostTextInMarkdown {
		ext = "md"
	}
	if err := storage.WriteTextDocument(dir, p.ContentsText(), ext); err != nil {
		return err
	}
	if p.ContentMalformed() {
		s.log.WarnWithFields("post text was partially undecodable", map[string]interface{}{
			"post_id": p.ID,
		})
	}

	d := s.newDownloader(p.MediaPool, dir)
	if s.cfg.NeedPhotos() {
		if err := d.DownloadPhotos(ctx); err != nil {
			return err
		}
	}
	if s.cfg.NeedVideos() {
		if err := d.DownloadVideos(ctx); err != nil {
			return err
		}
	}
	if s.cfg.NeedAudios() {
		if s.useCookie {
			if err := d.DownloadAudios(ctx); err != nil {
				return err
			}
		} else {
			s.log.Warn("can't download audio without authorization, fill auth fields in config")
		}
	}
	if s.cfg.NeedFiles() {
		if s.useCookie {
			if err := d.DownloadFiles(ctx); err != nil {
				return err
			}
		} else {
			s.log.Warn("can't download attached files without authorization, fill auth fields in config")
		}
	}
	return nil
}

// resolvePostDir picks the directory for a post. Without the mapping db the
// directory is the post id. With it, the post keeps whatever directory it was
// first saved under; new posts get a sanitized title, falling back to the id,
// with "<title>_<id>" on a title collision.
func (s *Syncer) resolvePostDir(p *post.Post, postsPath string, db *postmap.DB) (string, error) {
	if db == nil {
		return filepath.Join(postsPath, p.ID), nil
	}

	rec, err := db.GetPost(p.ID)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return rec.PostPath, nil
	}

	name := postmap.SanitizeDirName(p.Title)
	if name == "" {
		name = p.ID
	}
	dir := filepath.Join(postsPath, name)

	existing, err := db.GetPostsByPath(dir)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		dir = filepath.Join(postsPath, name+"_"+p.ID)
	}

	if _, err := db.CreatePost(s.creator, dir, p.ID); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Syncer) newDownloader(pool *media.Pool, basePath string) *downloader.Downloader {
	return downloader.New(
		s.client,
		pool,
		basePath,
		s.cfg.File.MaxDownloadParallel,
		s.cfg.Content.SaveMetadata,
		s.tracker,
	)
}
