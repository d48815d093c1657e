package syncstate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_data.json")

	s := New(path, "creator")
	s.SetLastOffset(StreamPhoto, strPtr("100:abc"))
	s.SetRuntimeOffset(StreamVideo, strPtr("50:def"))
	s.SetLastSyncTime(time.Date(2024, 6, 1, 10, 30, 45, 999999999, time.UTC))

	if err := s.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.CreatorName() != "creator" {
		t.Errorf("creator mismatch: %q", loaded.CreatorName())
	}
	if got := loaded.LastOffset(StreamPhoto); got == nil || *got != "100:abc" {
		t.Errorf("last photo offset mismatch: %v", got)
	}
	if got := loaded.RuntimeOffset(StreamVideo); got == nil || *got != "50:def" {
		t.Errorf("runtime video offset mismatch: %v", got)
	}
	if got := loaded.LastOffset(StreamAudio); got != nil {
		t.Errorf("unset offset should stay nil, got %q", *got)
	}

	ts := loaded.LastSyncTime()
	if ts == nil {
		t.Fatal("last sync time lost")
	}
	want := time.Date(2024, 6, 1, 10, 30, 45, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("timestamp should survive to second precision: got %v, want %v", ts, want)
	}
}

func TestLoadAbsent(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrAbsent) {
		t.Errorf("expected ErrAbsent, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()

	t.Run("NotJSON", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.json")
		os.WriteFile(path, []byte("{{{{"), 0644)
		if _, err := Load(path); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		// Every key is required; drop one.
		doc := map[string]interface{}{
			"creator_name":         "creator",
			"last_sync_utc":        nil,
			"last_photo_offset":    nil,
			"runtime_photo_offset": nil,
			"last_audio_offset":    nil,
			"runtime_audio_offset": nil,
			"last_video_offset":    nil,
			"runtime_video_offset": nil,
			"last_posts_offset":    nil,
			// runtime_posts_offset missing
		}
		data, _ := json.Marshal(doc)
		path := filepath.Join(dir, "partial.json")
		os.WriteFile(path, data, 0644)
		if _, err := Load(path); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})
}

func TestGetOrCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync_data.json")

	t.Run("CreatesFresh", func(t *testing.T) {
		s, err := GetOrCreate(path, "creator")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.CreatorName() != "creator" {
			t.Errorf("creator mismatch: %q", s.CreatorName())
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("fresh state should be persisted immediately: %v", err)
		}
	})

	t.Run("LoadsExisting", func(t *testing.T) {
		s, err := GetOrCreate(path, "creator")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s.SetLastOffset(StreamPosts, strPtr("7:x"))
		if err := s.Save(); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		again, err := GetOrCreate(path, "creator")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := again.LastOffset(StreamPosts); got == nil || *got != "7:x" {
			t.Errorf("existing offsets lost: %v", got)
		}
	})

	t.Run("CreatorMismatch", func(t *testing.T) {
		_, err := GetOrCreate(path, "someone_else")
		if !errors.Is(err, ErrCreatorMismatch) {
			t.Errorf("expected ErrCreatorMismatch, got %v", err)
		}
	})

	t.Run("CorruptFileRecovers", func(t *testing.T) {
		badPath := filepath.Join(dir, "bad.json")
		os.WriteFile(badPath, []byte("not json"), 0644)
		s, err := GetOrCreate(badPath, "creator")
		if err != nil {
			t.Fatalf("corrupt state should be replaced, got %v", err)
		}
		if s.LastOffset(StreamPhoto) != nil {
			t.Error("recovered state should be empty")
		}
	})
}

func TestFinishStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_data.json")

	t.Run("PromotesOnlyWhenNeverSet", func(t *testing.T) {
		s := New(path, "creator")
		s.SetRuntimeOffset(StreamPhoto, strPtr("30:z"))
		s.FinishStream(StreamPhoto, strPtr("100:first"))

		if s.RuntimeOffset(StreamPhoto) != nil {
			t.Error("runtime offset should be cleared on completion")
		}
		if got := s.LastOffset(StreamPhoto); got == nil || *got != "100:first" {
			t.Errorf("unset last offset should be promoted, got %v", got)
		}
	})

	t.Run("NeverOverwritesExisting", func(t *testing.T) {
		s := New(path, "creator")
		s.SetLastOffset(StreamPhoto, strPtr("200:old"))
		s.FinishStream(StreamPhoto, strPtr("100:first"))

		if got := s.LastOffset(StreamPhoto); got == nil || *got != "200:old" {
			t.Errorf("existing last offset must not regress, got %v", got)
		}
	})

	t.Run("NilFirstSeen", func(t *testing.T) {
		s := New(path, "creator")
		s.FinishStream(StreamPhoto, nil)
		if s.LastOffset(StreamPhoto) != nil {
			t.Error("no checkpoint candidate means no promotion")
		}
	})
}

func TestRuntimeOffsets(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "s.json"), "creator")

	if s.HasRuntimeOffsets() {
		t.Error("fresh state should have no runtime offsets")
	}

	s.SetRuntimeOffset(StreamAudio, strPtr("1:a"))
	if !s.HasRuntimeOffsets() {
		t.Error("runtime offset not detected")
	}

	s.ClearRuntimeOffsets()
	if s.HasRuntimeOffsets() {
		t.Error("runtime offsets not cleared")
	}
}
