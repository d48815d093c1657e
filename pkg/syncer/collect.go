package syncer

import (
	"context"

	"boostysync/pkg/boosty"
	"boostysync/pkg/media"
	"boostysync/pkg/post"
	"boostysync/pkg/syncstate"
)

// collectImages walks the image album stream into a media pool.
func (s *Syncer) collectImages(ctx context.Context, pool *media.Pool) error {
	s.log.InfoWithFields("collecting photos", map[string]interface{}{"creator": s.creator})
	return s.walkStream(ctx, syncstate.StreamPhoto, func(ctx context.Context, offset string) (pageResult, error) {
		page, err := s.client.FetchMediaPage(ctx, s.creator, "image", offset, s.useCookie)
		if err != nil {
			return pageResult{}, err
		}
		for _, mp := range page.Data.MediaPosts {
			if !mp.Post.HasAccess {
				continue
			}
			for _, m := range mp.Media {
				pool.AddImage(m.ID, m.URL, m.Width, m.Height)
			}
		}
		return pageResult{isLast: page.Extra.IsLast, offset: page.Extra.Offset}, nil
	})
}

// collectVideos walks the video album stream, keeping only playback URLs with
// a known quality tag.
func (s *Syncer) collectVideos(ctx context.Context, pool *media.Pool) error {
	s.log.InfoWithFields("collecting videos", map[string]interface{}{"creator": s.creator})
	return s.walkStream(ctx, syncstate.StreamVideo, func(ctx context.Context, offset string) (pageResult, error) {
		page, err := s.client.FetchMediaPage(ctx, s.creator, "video", offset, s.useCookie)
		if err != nil {
			return pageResult{}, err
		}
		for _, mp := range page.Data.MediaPosts {
			if !mp.Post.HasAccess {
				continue
			}
			for _, m := range mp.Media {
				addVideoRenditions(pool, m.ID, m.PlayerURLs, &media.VideoMeta{
					Title:      m.Title,
					PreviewURL: m.Preview,
				})
			}
		}
		return pageResult{isLast: page.Extra.IsLast, offset: page.Extra.Offset}, nil
	})
}

// collectAudios walks the audio album stream. Audio URLs only work with the
// owning post's signed query appended.
func (s *Syncer) collectAudios(ctx context.Context, pool *media.Pool) error {
	s.log.InfoWithFields("collecting audios", map[string]interface{}{"creator": s.creator})
	return s.walkStream(ctx, syncstate.StreamAudio, func(ctx context.Context, offset string) (pageResult, error) {
		page, err := s.client.FetchMediaPage(ctx, s.creator, "audio", offset, s.useCookie)
		if err != nil {
			return pageResult{}, err
		}
		for _, mp := range page.Data.MediaPosts {
			if !mp.Post.HasAccess {
				continue
			}
			for _, m := range mp.Media {
				pool.AddAudio(m.ID, m.URL+mp.Post.SignedQuery, m.Size)
			}
		}
		return pageResult{isLast: page.Extra.IsLast, offset: page.Extra.Offset}, nil
	})
}

// collectPosts walks the post stream into a post pool.
func (s *Syncer) collectPosts(ctx context.Context, pool *post.Pool) error {
	s.log.InfoWithFields("collecting posts", map[string]interface{}{"creator": s.creator})
	err := s.walkStream(ctx, syncstate.StreamPosts, func(ctx context.Context, offset string) (pageResult, error) {
		page, err := s.client.FetchPostPage(ctx, s.creator, offset, s.useCookie)
		if err != nil {
			return pageResult{}, err
		}
		for i := range page.Data {
			entry := &page.Data[i]
			if !entry.HasAccess {
				continue
			}
			p := s.buildPost(entry)
			if err := pool.AddPost(p); err != nil {
				return pageResult{}, err
			}
			for _, tag := range entry.Tags {
				pool.Tag(tag.Title, entry.ID)
			}
		}
		pool.NextOffset = page.Extra.Offset
		return pageResult{isLast: page.Extra.IsLast, offset: page.Extra.Offset}, nil
	})
	pool.Close()
	return err
}

// buildPost translates one post entry into a post record with its own media
// pool. Audio and attached-file URLs get the post's signed query appended.
func (s *Syncer) buildPost(entry *boosty.PostEntry) *post.Post {
	p := post.New(
		entry.ID,
		entry.Title,
		entry.PublishTime,
		s.cfg.Content.PostTextInMarkdown,
		s.mediaFlags(),
	)
	p.SignedQuery = entry.SignedQuery

	for _, block := range entry.Data {
		switch block.Type {
		case boosty.TypeImage:
			p.MediaPool.AddImage(block.ID, block.URL, block.Width, block.Height)
		case boosty.TypeVideo:
			addVideoRenditions(p.MediaPool, block.ID, block.PlayerURLs, &media.VideoMeta{
				Title:      entry.Title,
				PreviewURL: block.Preview,
			})
		case boosty.TypeAudio:
			p.MediaPool.AddAudio(block.ID, block.URL+entry.SignedQuery, block.Size)
		case boosty.TypeFile:
			p.MediaPool.AddFile(block.ID, block.URL+entry.SignedQuery, block.Size, block.Title)
		case boosty.TypeText:
			p.AddText(block.Content, block.Modificator)
		case boosty.TypeLink:
			p.AddLink(block.Content, block.URL)
		default:
			s.log.DebugWithFields("skipping content block of unknown type", map[string]interface{}{
				"post_id": entry.ID,
				"type":    block.Type,
			})
		}
	}

	for _, tag := range entry.Tags {
		p.AddTag(tag.Title)
	}

	return p
}

// addVideoRenditions inserts one record per playback URL whose quality tag is
// known and whose URL is non-empty; the pool keeps the best rank.
func addVideoRenditions(pool *media.Pool, id string, urls []boosty.PlayerURL, meta *media.VideoMeta) {
	for _, u := range urls {
		rank, known := boosty.VideoQualityRank[u.Type]
		if !known || u.URL == "" {
			continue
		}
		pool.AddVideo(id, u.URL, rank, meta)
	}
}

func (s *Syncer) mediaFlags() media.Flags {
	return media.Flags{
		Photos: s.cfg.NeedPhotos(),
		Videos: s.cfg.NeedVideos(),
		Audios: s.cfg.NeedAudios(),
		Files:  s.cfg.NeedFiles(),
	}
}
