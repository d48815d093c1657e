package syncer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boostysync/pkg/boosty"
	"boostysync/pkg/config"
	"boostysync/pkg/media"
	"boostysync/pkg/syncstate"
)

// mediaPage renders one media-album page response.
func mediaPage(mediaID, offset string, isLast bool) string {
	return fmt.Sprintf(`{
		"data": {"mediaPosts": [
			{"post": {"hasAccess": true},
			 "media": [{"id": %q, "url": "http://cdn/%s.jpg", "width": 10, "height": 10}]},
			{"post": {"hasAccess": false},
			 "media": [{"id": "locked", "url": "http://cdn/locked.jpg", "width": 10, "height": 10}]}
		]},
		"extra": {"isLast": %v, "offset": %q}
	}`, mediaID, mediaID, isLast, offset)
}

func newTestSyncer(t *testing.T, handler http.Handler) *Syncer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.File.SyncDir = t.TempDir()

	client := boosty.NewClient(5*time.Second, 5*time.Second, nil, boosty.WithBaseURL(server.URL))

	s, err := New(cfg, client, Options{Creator: "creator"})
	if err != nil {
		t.Fatalf("failed to create syncer: %v", err)
	}
	// Tests don't need the polite inter-page gap.
	s.pacer = noopPacer{}
	return s
}

type noopPacer struct{}

func (noopPacer) Wait()  {}
func (noopPacer) Reset() {}

func TestWalkStopsAtStoredCheckpoint(t *testing.T) {
	requests := 0
	pages := []string{
		mediaPage("m1", "300:a", false),
		mediaPage("m2", "200:b", false),
		mediaPage("m3", "100:c", false),
		mediaPage("m4", "50:d", false),
	}

	s := newTestSyncer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests >= len(pages) {
			t.Errorf("request past the checkpoint page: #%d", requests+1)
			w.Write([]byte(mediaPage("overrun", "1:z", true)))
			return
		}
		w.Write([]byte(pages[requests]))
		requests++
	}))

	s.state.SetLastOffset(syncstate.StreamPhoto, strPtr("100:old"))

	pool := media.NewPool(media.AllFlags())
	if err := s.collectImages(context.Background(), pool); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	// The page whose cursor parses to 100 (<= stored 100) is the last one
	// fetched; no request goes beyond it.
	if requests != 3 {
		t.Errorf("expected 3 page requests, got %d", requests)
	}

	// Entries of all fetched pages are processed, inaccessible ones skipped.
	images := pool.Images()
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	for _, img := range images {
		if img.ID == "locked" {
			t.Error("inaccessible entry leaked into the pool")
		}
	}

	// Stored checkpoint must not regress, runtime offset must be cleared.
	if got := s.state.LastOffset(syncstate.StreamPhoto); got == nil || *got != "100:old" {
		t.Errorf("stored checkpoint changed: %v", got)
	}
	if s.state.RuntimeOffset(syncstate.StreamPhoto) != nil {
		t.Error("runtime offset not cleared after clean completion")
	}
}

func TestWalkPromotesFirstSeenCursor(t *testing.T) {
	requests := 0
	pages := []string{
		mediaPage("m1", "300:a", false),
		mediaPage("m2", "250:b", true),
	}

	s := newTestSyncer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pages[requests]))
		requests++
	}))

	pool := media.NewPool(media.AllFlags())
	if err := s.collectImages(context.Background(), pool); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	if requests != 2 {
		t.Errorf("expected 2 page requests, got %d", requests)
	}
	if got := s.state.LastOffset(syncstate.StreamPhoto); got == nil || *got != "300:a" {
		t.Errorf("first-seen cursor should be promoted, got %v", got)
	}
}

func TestWalkResumesFromRuntimeOffset(t *testing.T) {
	var firstOffsetParam string
	gotRequest := false

	s := newTestSyncer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !gotRequest {
			firstOffsetParam = r.URL.Query().Get("offset")
			gotRequest = true
		}
		w.Write([]byte(mediaPage("m1", "10:x", true)))
	}))

	s.resume = true
	s.state.SetRuntimeOffset(syncstate.StreamPhoto, strPtr("150:mid"))

	pool := media.NewPool(media.AllFlags())
	if err := s.collectImages(context.Background(), pool); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	if firstOffsetParam != "150:mid" {
		t.Errorf("resume should refetch the interrupted page, got offset %q", firstOffsetParam)
	}
}

func TestWalkPersistsStateToDisk(t *testing.T) {
	requests := 0

	s := newTestSyncer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch requests {
		case 1:
			w.Write([]byte(mediaPage("m1", "300:a", false)))
		default:
			w.Write([]byte(mediaPage("m2", "200:b", true)))
		}
	}))

	statePath := s.layout.SyncStatePath()

	pool := media.NewPool(media.AllFlags())
	if err := s.collectImages(context.Background(), pool); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	reloaded, err := syncstate.Load(statePath)
	if err != nil {
		t.Fatalf("failed to reload state: %v", err)
	}
	if got := reloaded.LastOffset(syncstate.StreamPhoto); got == nil || *got != "300:a" {
		t.Errorf("persisted checkpoint mismatch: %v", got)
	}
	if reloaded.RuntimeOffset(syncstate.StreamPhoto) != nil {
		t.Error("persisted runtime offset should be cleared after completion")
	}
}

func TestWalkAbandonedStreamKeepsResumeState(t *testing.T) {
	requests := 0

	s := newTestSyncer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Write([]byte(mediaPage("m1", "300:a", false)))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	pool := media.NewPool(media.AllFlags())
	if err := s.collectImages(context.Background(), pool); err != nil {
		t.Fatalf("abandoning a stream should not fail the run: %v", err)
	}

	// One good page plus maxStreamErrors+1 failures before giving up.
	if requests != maxStreamErrors+2 {
		t.Errorf("expected %d requests, got %d", maxStreamErrors+2, requests)
	}

	// The stream never finished: no checkpoint may be promoted, and the
	// in-flight cursor must survive so a later run can resume.
	if got := s.state.LastOffset(syncstate.StreamPhoto); got != nil {
		t.Errorf("abandoned stream promoted checkpoint to %q", *got)
	}
	if got := s.state.RuntimeOffset(syncstate.StreamPhoto); got == nil || *got != "300:a" {
		t.Errorf("in-flight cursor lost after abandonment: %v", got)
	}

	reloaded, err := syncstate.Load(s.layout.SyncStatePath())
	if err != nil {
		t.Fatalf("failed to reload state: %v", err)
	}
	if got := reloaded.RuntimeOffset(syncstate.StreamPhoto); got == nil || *got != "300:a" {
		t.Errorf("persisted in-flight cursor mismatch: %v", got)
	}
}

func TestBuildPost(t *testing.T) {
	s := newTestSyncer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	entry := &boosty.PostEntry{
		ID:          "p1",
		Title:       "Post",
		PublishTime: 1700000000,
		HasAccess:   true,
		SignedQuery: "?sig=9",
		Data: []boosty.ContentBlock{
			{Type: boosty.TypeImage, ID: "i1", URL: "http://cdn/i1", Width: 10, Height: 10},
			{Type: boosty.TypeVideo, ID: "v1", PlayerURLs: []boosty.PlayerURL{
				{Type: "low", URL: "http://cdn/v1-low"},
				{Type: "full_hd", URL: "http://cdn/v1-fhd"},
				{Type: "dash", URL: "http://cdn/v1-dash"}, // unknown quality tag
				{Type: "ultra_hd", URL: ""},               // empty URL
			}},
			{Type: boosty.TypeAudio, ID: "a1", URL: "http://cdn/a1", Size: 100},
			{Type: boosty.TypeFile, ID: "f1", URL: "http://cdn/f1", Size: 10, Title: "notes.pdf"},
			{Type: boosty.TypeText, Content: `["hello", "unstyled", []]`, Modificator: ""},
		},
		Tags: []boosty.Tag{{ID: 1, Title: "art"}},
	}

	p := s.buildPost(entry)

	if got := p.MediaPool.Videos(); len(got) != 1 || got[0].URL != "http://cdn/v1-fhd" {
		t.Errorf("video selection mismatch: %+v", got)
	}
	if got := p.MediaPool.Audios(); len(got) != 1 || got[0].URL != "http://cdn/a1?sig=9" {
		t.Errorf("audio should carry the signed query: %+v", got)
	}
	if got := p.MediaPool.Files(); len(got) != 1 || got[0].URL != "http://cdn/f1?sig=9" {
		t.Errorf("file should carry the signed query: %+v", got)
	}
	if got := p.Blocks(); len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("text block mismatch: %+v", got)
	}
	if got := p.Tags(); len(got) != 1 || got[0] != "art" {
		t.Errorf("tags mismatch: %v", got)
	}
}

func strPtr(s string) *string { return &s }
