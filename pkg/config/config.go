package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StorageType selects how downloaded content is laid out on disk.
type StorageType string

const (
	// StorageMedia mirrors the creator's media albums into flat per-kind directories.
	StorageMedia StorageType = "media"
	// StoragePost creates one directory per post with its text document and media.
	StoragePost StorageType = "post"
)

// Config holds all configuration for the Boosty synchronizer.
type Config struct {
	Auth    AuthConfig    `yaml:"auth" json:"auth"`
	File    FileConfig    `yaml:"file" json:"file"`
	Content ContentConfig `yaml:"content" json:"content"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AuthConfig carries the session cookie and authorization token copied from a
// logged-in browser session. Both are optional; without them only public
// content is visible.
type AuthConfig struct {
	Cookie        string `yaml:"cookie" json:"cookie"`
	Authorization string `yaml:"authorization" json:"authorization"`
}

// FileConfig holds filesystem and transfer settings.
type FileConfig struct {
	SyncDir             string        `yaml:"sync_dir" json:"sync_dir"`
	DownloadChunkSize   int           `yaml:"download_chunk_size" json:"download_chunk_size"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	MaxDownloadParallel int           `yaml:"max_download_parallel" json:"max_download_parallel"`
}

// ContentConfig selects which media kinds are collected and how posts are stored.
type ContentConfig struct {
	Collect              []string    `yaml:"collect" json:"collect"`
	StorageType          StorageType `yaml:"storage_type" json:"storage_type"`
	PostTextInMarkdown   bool        `yaml:"post_text_in_markdown" json:"post_text_in_markdown"`
	SaveMetadata         bool        `yaml:"save_metadata" json:"save_metadata"`
	SyncOffsetSave       bool        `yaml:"sync_offset_save" json:"sync_offset_save"`
	EnablePostMasquerade bool        `yaml:"enable_post_masquerade" json:"enable_post_masquerade"`
	DesiredPostID        string      `yaml:"desired_post_id" json:"desired_post_id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with sensible defaults: collect everything,
// media layout, offsets persisted.
func DefaultConfig() *Config {
	return &Config{
		File: FileConfig{
			SyncDir:             "./sync",
			DownloadChunkSize:   153600,
			DownloadTimeout:     time.Hour,
			MaxDownloadParallel: 5,
		},
		Content: ContentConfig{
			Collect:            []string{"photos", "videos", "audios", "files"},
			StorageType:        StorageMedia,
			PostTextInMarkdown: true,
			SyncOffsetSave:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// NeedPhotos reports whether image media should be collected.
func (c *Config) NeedPhotos() bool { return c.collects("photos") }

// NeedVideos reports whether video media should be collected.
func (c *Config) NeedVideos() bool { return c.collects("videos") }

// NeedAudios reports whether audio media should be collected.
func (c *Config) NeedAudios() bool { return c.collects("audios") }

// NeedFiles reports whether attached files should be collected.
func (c *Config) NeedFiles() bool { return c.collects("files") }

func (c *Config) collects(kind string) bool {
	for _, v := range c.Content.Collect {
		if v == kind {
			return true
		}
	}
	return false
}

// ReadyToAuth reports whether both credentials look usable. Values shorter
// than 10 characters are treated as placeholders left in the config template.
func (c *Config) ReadyToAuth() bool {
	return len(c.Auth.Cookie) >= 10 && len(c.Auth.Authorization) >= 10
}

// LoadFromFile loads configuration from a YAML file. An empty path falls back
// to the default locations; a missing default file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) findConfigFile() string {
	locations := []string{
		"config.yml",
		"config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "boostysync", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".boostysync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoadFromEnv overrides configuration with environment variables.
func (c *Config) LoadFromEnv() {
	if cookie := os.Getenv("BOOSTY_COOKIE"); cookie != "" {
		c.Auth.Cookie = cookie
	}
	if auth := os.Getenv("BOOSTY_AUTHORIZATION"); auth != "" {
		c.Auth.Authorization = auth
	}
	if dir := os.Getenv("BOOSTY_SYNC_DIR"); dir != "" {
		c.File.SyncDir = dir
	}
	if parallel := os.Getenv("BOOSTY_MAX_DOWNLOAD_PARALLEL"); parallel != "" {
		if v, err := strconv.Atoi(parallel); err == nil && v > 0 {
			c.File.MaxDownloadParallel = v
		}
	}
	if timeout := os.Getenv("BOOSTY_DOWNLOAD_TIMEOUT"); timeout != "" {
		if v, err := strconv.Atoi(timeout); err == nil && v > 0 {
			c.File.DownloadTimeout = time.Duration(v) * time.Second
		}
	}
	if level := os.Getenv("BOOSTY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.File.SyncDir == "" {
		errs = append(errs, errors.New("sync_dir is required"))
	}
	if c.File.MaxDownloadParallel <= 0 {
		errs = append(errs, errors.New("max_download_parallel must be positive"))
	}
	if c.File.DownloadChunkSize <= 0 {
		errs = append(errs, errors.New("download_chunk_size must be positive"))
	}
	if c.File.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download_timeout must be positive"))
	}

	switch c.Content.StorageType {
	case StorageMedia, StoragePost:
	default:
		errs = append(errs, fmt.Errorf("unknown storage_type: %q", c.Content.StorageType))
	}

	for _, kind := range c.Content.Collect {
		switch kind {
		case "photos", "videos", "audios", "files":
		default:
			errs = append(errs, fmt.Errorf("unknown collect kind: %q", kind))
		}
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Load assembles configuration from all sources.
// Precedence: flags > environment (incl. .env) > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".boostysync.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.LoadFromEnv()
	cfg.MergeFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// MergeFlags merges command line flags into the configuration.
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if dir, ok := flags["sync-dir"].(string); ok && dir != "" {
		c.File.SyncDir = dir
	}
	if parallel, ok := flags["parallel"].(int); ok && parallel > 0 {
		c.File.MaxDownloadParallel = parallel
	}
	if timeout, ok := flags["download-timeout"].(int); ok && timeout > 0 {
		c.File.DownloadTimeout = time.Duration(timeout) * time.Second
	}
	if st, ok := flags["storage-type"].(string); ok && st != "" {
		c.Content.StorageType = StorageType(st)
	}
	if postID, ok := flags["post"].(string); ok && postID != "" {
		c.Content.DesiredPostID = postID
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}
