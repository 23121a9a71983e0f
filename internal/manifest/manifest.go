// Package manifest persists per-video outcomes so that re-runs can skip work
// that already succeeded.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Filename is the manifest file written inside the output directory.
const Filename = "manifest.json"

// Entry is the last-known outcome for a video id. Newer writes supersede
// older ones; entries are never deleted automatically.
type Entry struct {
	Status    string    `json:"status"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Quality   string    `json:"quality,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
	Retries   int       `json:"retries,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type fileData struct {
	PlaylistURL string           `json:"playlist_url,omitempty"`
	Videos      map[string]Entry `json:"videos"`
}

// Store is a single-writer manifest backed by a JSON file. Record serializes
// concurrent writers and persists before returning, using a temp file and an
// atomic rename so the file on disk is always a complete mapping.
type Store struct {
	mu   sync.Mutex
	path string
	data fileData
	log  zerolog.Logger
}

// Load reads the manifest from dir. A missing file yields an empty store; a
// corrupt file is logged and treated as empty so resume degrades to "no
// history" instead of failing the run.
func Load(dir string, log zerolog.Logger) *Store {
	s := &Store{
		path: filepath.Join(dir, Filename),
		data: fileData{Videos: map[string]Entry{}},
		log:  log,
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("manifest unreadable, starting fresh")
		}
		return s
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("manifest corrupt, starting fresh")
		return s
	}
	if data.Videos == nil {
		data.Videos = map[string]Entry{}
	}
	s.data = data
	return s
}

// Get returns the entry for id, if any.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data.Videos[id]
	return e, ok
}

// Len reports the number of recorded entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Videos)
}

// SetPlaylist remembers the last target URL in the manifest header.
func (s *Store) SetPlaylist(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PlaylistURL = url
}

// Record overwrites the entry for id and persists the whole mapping before
// returning. A write failure is returned to the caller but the in-memory
// entry is kept, so the run continues with possibly stale on-disk state.
func (s *Store) Record(id string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.data.Videos[id] = entry
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating manifest temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing manifest temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}
