package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"boostysync/pkg/boosty"
	"boostysync/pkg/media"
	"boostysync/pkg/stats"
)

var bigBody = strings.Repeat("x", 20000)

func newTestSetup(t *testing.T, handler http.Handler) (*boosty.Client, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := boosty.NewClient(5*time.Second, 30*time.Second, nil, boosty.WithBaseURL(server.URL))
	return client, server.URL
}

func TestDownloadPhotosSkipsExisting(t *testing.T) {
	requests := 0
	client, serverURL := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(bigBody))
	}))

	base := t.TempDir()
	photosDir := filepath.Join(base, "photos")
	if err := os.MkdirAll(photosDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(photosDir, "exists.jpg"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	pool := media.NewPool(media.AllFlags())
	pool.AddImage("exists", serverURL+"/exists.jpg", 10, 10)
	pool.AddImage("fresh", serverURL+"/fresh.jpg", 10, 10)

	tracker := stats.NewTracker()
	d := New(client, pool, base, 2, false, tracker)
	if err := d.DownloadPhotos(context.Background()); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	if got := tracker.Passed(stats.KindPhoto); got != 1 {
		t.Errorf("expected 1 passed, got %d", got)
	}
	if got := tracker.Downloaded(stats.KindPhoto); got != 1 {
		t.Errorf("expected 1 downloaded, got %d", got)
	}
	if requests != 1 {
		t.Errorf("existing file should not be re-fetched, got %d requests", requests)
	}

	// The existing file is untouched.
	data, _ := os.ReadFile(filepath.Join(photosDir, "exists.jpg"))
	if string(data) != "old" {
		t.Error("existing file was overwritten")
	}
}

func TestDownloadFailureIsolation(t *testing.T) {
	client, serverURL := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(bigBody))
	}))

	pool := media.NewPool(media.AllFlags())
	pool.AddImage("broken", serverURL+"/broken.jpg", 10, 10)
	pool.AddImage("good", serverURL+"/good.jpg", 10, 10)

	base := t.TempDir()
	tracker := stats.NewTracker()
	d := New(client, pool, base, 2, false, tracker)
	if err := d.DownloadPhotos(context.Background()); err != nil {
		t.Fatalf("batch should not fail on one bad item: %v", err)
	}

	if got := tracker.Downloaded(stats.KindPhoto); got != 1 {
		t.Errorf("sibling download should succeed, got %d downloaded", got)
	}
	if got := tracker.Errors(stats.KindPhoto); got != 1 {
		t.Errorf("expected 1 error, got %d", got)
	}

	failed := tracker.FailedItems()
	if len(failed) != 1 || failed[0].ID != "broken" {
		t.Errorf("failed item not recorded: %+v", failed)
	}

	if _, err := os.Stat(filepath.Join(base, "photos", "good.jpg")); err != nil {
		t.Errorf("successful sibling file missing: %v", err)
	}
}

func TestDownloadFilesUseTitleAsFilename(t *testing.T) {
	client, serverURL := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bigBody))
	}))

	pool := media.NewPool(media.AllFlags())
	pool.AddFile("f1", serverURL+"/f1", 100, "report.pdf")

	base := t.TempDir()
	tracker := stats.NewTracker()
	d := New(client, pool, base, 1, false, tracker)
	if err := d.DownloadFiles(context.Background()); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(base, "files", "report.pdf")); err != nil {
		t.Errorf("attached file should keep its uploaded name: %v", err)
	}
}

func TestDownloadKindFilenames(t *testing.T) {
	client, serverURL := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bigBody))
	}))

	pool := media.NewPool(media.AllFlags())
	pool.AddVideo("v1", serverURL+"/v1", 3, nil)
	pool.AddAudio("a1", serverURL+"/a1", 100)

	base := t.TempDir()
	tracker := stats.NewTracker()
	d := New(client, pool, base, 2, false, tracker)

	if err := d.DownloadVideos(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := d.DownloadAudios(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(base, "videos", "v1.mp4")); err != nil {
		t.Errorf("video filename mismatch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "audios", "a1.mp3")); err != nil {
		t.Errorf("audio filename mismatch: %v", err)
	}
}
