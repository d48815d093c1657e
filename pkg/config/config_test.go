package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "./sync", cfg.File.SyncDir)
	assert.Equal(t, 5, cfg.File.MaxDownloadParallel)
	assert.Equal(t, time.Hour, cfg.File.DownloadTimeout)
	assert.Equal(t, StorageMedia, cfg.Content.StorageType)
	assert.True(t, cfg.Content.SyncOffsetSave)
	assert.True(t, cfg.NeedPhotos())
	assert.True(t, cfg.NeedVideos())
	assert.True(t, cfg.NeedAudios())
	assert.True(t, cfg.NeedFiles())
	require.NoError(t, cfg.Validate())
}

func TestReadyToAuth(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.ReadyToAuth())

	// Placeholder-length values do not count as configured.
	cfg.Auth.Cookie = "short"
	cfg.Auth.Authorization = "short"
	assert.False(t, cfg.ReadyToAuth())

	cfg.Auth.Cookie = "a-cookie-value-long-enough"
	cfg.Auth.Authorization = "short"
	assert.False(t, cfg.ReadyToAuth())

	cfg.Auth.Authorization = "Bearer some-real-token"
	assert.True(t, cfg.ReadyToAuth())
}

func TestValidate(t *testing.T) {
	t.Run("BadStorageType", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Content.StorageType = "cloud"
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadCollectKind", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Content.Collect = []string{"photos", "podcasts"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadParallelism", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.File.MaxDownloadParallel = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "loud"
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
auth:
  cookie: cookie-from-file-long-enough
  authorization: auth-from-file-long-enough
file:
  sync_dir: /data/boosty
  max_download_parallel: 8
content:
  collect: [photos, videos]
  storage_type: post
  post_text_in_markdown: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "/data/boosty", cfg.File.SyncDir)
	assert.Equal(t, 8, cfg.File.MaxDownloadParallel)
	assert.Equal(t, StoragePost, cfg.Content.StorageType)
	assert.False(t, cfg.Content.PostTextInMarkdown)
	assert.True(t, cfg.NeedPhotos())
	assert.False(t, cfg.NeedAudios())
	assert.True(t, cfg.ReadyToAuth())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOOSTY_COOKIE", "cookie-from-env-long-enough")
	t.Setenv("BOOSTY_AUTHORIZATION", "auth-from-env-long-enough")
	t.Setenv("BOOSTY_MAX_DOWNLOAD_PARALLEL", "3")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "cookie-from-env-long-enough", cfg.Auth.Cookie)
	assert.Equal(t, 3, cfg.File.MaxDownloadParallel)
	assert.True(t, cfg.ReadyToAuth())
}

func TestMergeFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeFlags(map[string]interface{}{
		"sync-dir":     "/tmp/sync",
		"parallel":     2,
		"storage-type": "post",
		"post":         "abc123",
	})

	assert.Equal(t, "/tmp/sync", cfg.File.SyncDir)
	assert.Equal(t, 2, cfg.File.MaxDownloadParallel)
	assert.Equal(t, StoragePost, cfg.Content.StorageType)
	assert.Equal(t, "abc123", cfg.Content.DesiredPostID)
}
