package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	store := Load(t.TempDir(), zerolog.Nop())
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
	if _, ok := store.Get("anything"); ok {
		t.Fatal("expected no entry")
	}
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, Filename), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	store := Load(dir, zerolog.Nop())
	if store.Len() != 0 {
		t.Fatalf("corrupt manifest should load as empty, got %d entries", store.Len())
	}
	// A fresh record must still succeed afterwards.
	if err := store.Record("v1", Entry{Status: "success", Path: "v1.mp4"}); err != nil {
		t.Fatalf("record after corrupt load: %v", err)
	}
}

func TestRecord_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	store := Load(dir, zerolog.Nop())
	store.SetPlaylist("https://youtube.com/playlist?list=PL1")
	err := store.Record("v1", Entry{
		Status:  "success",
		Path:    filepath.Join(dir, "v1.mp4"),
		Quality: "720p",
		Retries: 1,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	again := Load(dir, zerolog.Nop())
	entry, ok := again.Get("v1")
	if !ok {
		t.Fatal("entry missing after reload")
	}
	if entry.Status != "success" || entry.Quality != "720p" || entry.Retries != 1 {
		t.Fatalf("entry mismatch after reload: %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Fatal("timestamp should have been stamped on record")
	}
}

func TestRecord_LastWriteWins(t *testing.T) {
	dir := t.TempDir()
	store := Load(dir, zerolog.Nop())
	if err := store.Record("v1", Entry{Status: "failed", Error: "network"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record("v1", Entry{Status: "success", Path: "v1.mp4"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	entry, _ := Load(dir, zerolog.Nop()).Get("v1")
	if entry.Status != "success" || entry.Error != "" {
		t.Fatalf("newer write should supersede older: %+v", entry)
	}
}

func TestRecord_ConcurrentWritersLeaveParseableFile(t *testing.T) {
	dir := t.TempDir()
	store := Load(dir, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("v%02d", i)
			if err := store.Record(id, Entry{Status: "success", Path: id + ".mp4"}); err != nil {
				t.Errorf("record %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	raw, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	var data struct {
		Videos map[string]Entry `json:"videos"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("manifest not parseable after concurrent writes: %v", err)
	}
	if len(data.Videos) != 20 {
		t.Fatalf("expected 20 entries on disk, got %d", len(data.Videos))
	}
}

func TestRecord_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store := Load(dir, zerolog.Nop())
	for i := 0; i < 5; i++ {
		if err := store.Record(fmt.Sprintf("v%d", i), Entry{Status: "success"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != Filename {
			t.Fatalf("unexpected file left in output dir: %s", e.Name())
		}
	}
}
