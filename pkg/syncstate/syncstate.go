package syncstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"boostysync/pkg/logger"
)

// Stream identifies one of the four independent content streams whose cursors
// are tracked separately.
type Stream string

const (
	StreamPhoto Stream = "photo"
	StreamAudio Stream = "audio"
	StreamVideo Stream = "video"
	StreamPosts Stream = "posts"
)

// Streams lists every tracked stream.
var Streams = []Stream{StreamPhoto, StreamAudio, StreamVideo, StreamPosts}

var (
	// ErrAbsent means no state file exists at the path. Recoverable: start fresh.
	ErrAbsent = errors.New("sync state file does not exist")
	// ErrCorrupt means the file exists but does not match the expected schema.
	// Recoverable: start fresh.
	ErrCorrupt = errors.New("sync state file is corrupt")
	// ErrCreatorMismatch means the file belongs to a different creator. Hard stop.
	ErrCreatorMismatch = errors.New("sync state belongs to a different creator")
)

type offsets struct {
	last    *string
	runtime *string
}

// State is the durable cursor store for one creator. Every read and write of
// its fields and every persistence call is guarded by a single mutex because
// the per-stream fetch loops run concurrently and each independently
// reads, updates, and persists the state.
type State struct {
	mu   sync.Mutex
	path string

	creatorName string
	lastSync    *time.Time
	streams     map[Stream]*offsets
}

// New creates an empty state bound to a path and creator.
func New(path, creatorName string) *State {
	s := &State{
		path:        path,
		creatorName: creatorName,
		streams:     make(map[Stream]*offsets),
	}
	for _, stream := range Streams {
		s.streams[stream] = &offsets{}
	}
	return s
}

// CreatorName returns the creator this state file is bound to.
func (s *State) CreatorName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creatorName
}

// LastOffset returns the last fully-completed cursor for a stream, or nil.
func (s *State) LastOffset(stream Stream) *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[stream].last
}

// SetLastOffset records the last fully-completed cursor for a stream.
func (s *State) SetLastOffset(stream Stream, offset *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[stream].last = offset
}

// RuntimeOffset returns the in-progress cursor for a stream, or nil.
func (s *State) RuntimeOffset(stream Stream) *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[stream].runtime
}

// SetRuntimeOffset records the cursor of the page currently being processed.
// Passing nil clears it.
func (s *State) SetRuntimeOffset(stream Stream, offset *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[stream].runtime = offset
}

// HasRuntimeOffsets reports whether any stream has an in-progress cursor,
// which means the previous run was interrupted mid-page.
func (s *State) HasRuntimeOffsets() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.streams {
		if o.runtime != nil {
			return true
		}
	}
	return false
}

// ClearRuntimeOffsets drops all in-progress cursors.
func (s *State) ClearRuntimeOffsets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.streams {
		o.runtime = nil
	}
}

// LastSyncTime returns the time of the last completed sync, or nil.
func (s *State) LastSyncTime() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// SetLastSyncTime records the time of the last completed sync, truncated to
// the second so the value survives a JSON round trip exactly.
func (s *State) SetLastSyncTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt := t.UTC().Truncate(time.Second)
	s.lastSync = &tt
}

// FinishStream implements the clean-completion protocol for one stream: the
// runtime offset is cleared and, only if the last offset was never otherwise
// set, it is promoted from the first-seen checkpoint of the run.
func (s *State) FinishStream(stream Stream, firstSeen *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.streams[stream]
	o.runtime = nil
	if o.last == nil && firstSeen != nil {
		o.last = firstSeen
	}
}

type stateFile struct {
	CreatorName        string  `json:"creator_name"`
	LastSyncUTC        *string `json:"last_sync_utc"`
	LastPhotoOffset    *string `json:"last_photo_offset"`
	RuntimePhotoOffset *string `json:"runtime_photo_offset"`
	LastAudioOffset    *string `json:"last_audio_offset"`
	RuntimeAudioOffset *string `json:"runtime_audio_offset"`
	LastVideoOffset    *string `json:"last_video_offset"`
	RuntimeVideoOffset *string `json:"runtime_video_offset"`
	LastPostsOffset    *string `json:"last_posts_offset"`
	RuntimePostsOffset *string `json:"runtime_posts_offset"`
}

var stateFileKeys = []string{
	"creator_name", "last_sync_utc",
	"last_photo_offset", "runtime_photo_offset",
	"last_audio_offset", "runtime_audio_offset",
	"last_video_offset", "runtime_video_offset",
	"last_posts_offset", "runtime_posts_offset",
}

// Save writes the state to its path, via a temp file and rename so an
// interrupted write never leaves a half-written file behind.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *State) saveLocked() error {
	f := stateFile{
		CreatorName:        s.creatorName,
		LastPhotoOffset:    s.streams[StreamPhoto].last,
		RuntimePhotoOffset: s.streams[StreamPhoto].runtime,
		LastAudioOffset:    s.streams[StreamAudio].last,
		RuntimeAudioOffset: s.streams[StreamAudio].runtime,
		LastVideoOffset:    s.streams[StreamVideo].last,
		RuntimeVideoOffset: s.streams[StreamVideo].runtime,
		LastPostsOffset:    s.streams[StreamPosts].last,
		RuntimePostsOffset: s.streams[StreamPosts].runtime,
	}
	if s.lastSync != nil {
		ts := s.lastSync.Format(time.RFC3339)
		f.LastSyncUTC = &ts
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace sync state file: %w", err)
	}

	return nil
}

// Load reads a state file. A missing file yields ErrAbsent; a file with any
// expected key missing, or undecodable, yields ErrCorrupt. Both are
// recoverable by creating fresh state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAbsent
		}
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for _, key := range stateFileKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrCorrupt, key)
		}
	}

	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	s := New(path, f.CreatorName)
	s.streams[StreamPhoto].last = f.LastPhotoOffset
	s.streams[StreamPhoto].runtime = f.RuntimePhotoOffset
	s.streams[StreamAudio].last = f.LastAudioOffset
	s.streams[StreamAudio].runtime = f.RuntimeAudioOffset
	s.streams[StreamVideo].last = f.LastVideoOffset
	s.streams[StreamVideo].runtime = f.RuntimeVideoOffset
	s.streams[StreamPosts].last = f.LastPostsOffset
	s.streams[StreamPosts].runtime = f.RuntimePostsOffset

	if f.LastSyncUTC != nil {
		t, err := time.Parse(time.RFC3339, *f.LastSyncUTC)
		if err != nil {
			return nil, fmt.Errorf("%w: bad last_sync_utc: %v", ErrCorrupt, err)
		}
		t = t.UTC()
		s.lastSync = &t
	}

	return s, nil
}

// GetOrCreate loads the state at path or initializes a fresh one when the
// file is absent or corrupt. A state file bound to a different creator is a
// hard error: two creators' cursors must never mix.
func GetOrCreate(path, creatorName string) (*State, error) {
	log := logger.GetLogger()

	s, err := Load(path)
	switch {
	case err == nil:
		if s.creatorName != creatorName {
			return nil, fmt.Errorf("%w: file has %q, requested %q",
				ErrCreatorMismatch, s.creatorName, creatorName)
		}
		return s, nil
	case errors.Is(err, ErrAbsent):
		log.InfoWithFields("no sync state found, starting fresh", map[string]interface{}{
			"path": path,
		})
	case errors.Is(err, ErrCorrupt):
		log.WarnWithFields("sync state is corrupt, starting fresh", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	default:
		return nil, err
	}

	s = New(path, creatorName)
	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("failed to save initial sync state: %w", err)
	}
	return s, nil
}
