package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"boostysync/pkg/logger"
)

// Layout manages the on-disk tree for one creator:
//
//	<sync_dir>/<creator>/photos|videos|audios
//	<sync_dir>/<creator>/posts/<post dir>/...
//	<sync_dir>/<creator>/__cache__/   (sync state, post db)
type Layout struct {
	syncDir string
	creator string
}

// NewLayout creates the layout for a creator and ensures its base and cache
// directories exist.
func NewLayout(syncDir, creator string) (*Layout, error) {
	l := &Layout{
		syncDir: syncDir,
		creator: creator,
	}
	if err := l.EnsureDir(l.BasePath()); err != nil {
		return nil, err
	}
	if err := l.EnsureDir(l.CachePath()); err != nil {
		return nil, err
	}
	return l, nil
}

// BasePath is the creator's root directory.
func (l *Layout) BasePath() string {
	return filepath.Join(l.syncDir, l.creator)
}

// CachePath holds internal files that are not content: the sync state file
// and the post mapping database.
func (l *Layout) CachePath() string {
	return filepath.Join(l.BasePath(), "__cache__")
}

// SyncStatePath is the location of the creator's cursor store.
func (l *Layout) SyncStatePath() string {
	return filepath.Join(l.CachePath(), "sync_data.json")
}

// PostDBPath is the location of the post mapping database.
func (l *Layout) PostDBPath() string {
	return filepath.Join(l.CachePath(), "post.db")
}

// PostsPath is the root for per-post directories.
func (l *Layout) PostsPath() string {
	return filepath.Join(l.BasePath(), "posts")
}

// EnsureDir creates a directory (and parents) if it does not exist.
func (l *Layout) EnsureDir(path string) error {
	return EnsureDir(path)
}

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil
	}
	logger.GetLogger().InfoWithFields("creating directory", map[string]interface{}{"path": path})
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// FileExists reports whether a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteTextDocument writes a post's text document into dir as
// contents.<ext>, via a temp file and rename so a crash mid-write never
// leaves a truncated document.
func WriteTextDocument(dir, content, ext string) error {
	path := filepath.Join(dir, "contents."+ext)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write text document: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize text document: %w", err)
	}
	return nil
}
