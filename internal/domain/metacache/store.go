// Package metacache persists per-document processing metadata keyed by
// content fingerprint. The cache is what makes reruns idempotent: a file
// whose fingerprint is already recorded is skipped, a renamed copy of a
// processed file hits the same key.
package metacache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrCacheCorruption marks a metadata store that can no longer be
// trusted. It is fatal for the run: continuing would risk double
// processing or silently skipping unprocessed files.
var ErrCacheCorruption = errors.New("metadata cache corrupted")

// Entry records one processed document.
type Entry struct {
	Fingerprint     string    `json:"fingerprint"`
	Bank            string    `json:"bank"`
	SourcePath      string    `json:"source_path"`
	ProcessedAt     time.Time `json:"processed_at"`
	OutputPath      string    `json:"output_path"`
	RecordCount     int       `json:"record_count"`
	ValidationFlags []string  `json:"validation_flags,omitempty"`
}

// Store is a directory of one JSON file per fingerprint. All methods are
// safe for concurrent use; Record is write-through so a crash mid-batch
// loses at most the file being processed.
type Store struct {
	dir string
	log *slog.Logger

	mu      sync.Mutex
	entries map[string]Entry
}

// Load opens (or creates) the store at dir and reads every entry.
// Unreadable or inconsistent entries fail the load with
// ErrCacheCorruption.
func Load(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	s := &Store{
		dir:     dir,
		log:     log,
		entries: make(map[string]Entry),
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheCorruption, err)
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrCacheCorruption, path, err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrCacheCorruption, path, err)
		}
		// filename and embedded fingerprint must agree
		if e.Fingerprint == "" || d.Name() != e.Fingerprint+".json" {
			return fmt.Errorf("%w: %s does not match its fingerprint %q", ErrCacheCorruption, d.Name(), e.Fingerprint)
		}
		s.entries[e.Fingerprint] = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("metadata cache loaded", slog.String("dir", dir), slog.Int("entries", len(s.entries)))
	return s, nil
}

// Lookup reports whether fingerprint was already processed.
func (s *Store) Lookup(fingerprint string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[fingerprint]
	return e, ok
}

// Record persists one entry, replacing any previous entry for the same
// fingerprint. The entry file is written atomically before the in-memory
// index is updated.
func (s *Store) Record(e Entry) error {
	if e.Fingerprint == "" {
		return fmt.Errorf("record cache entry: empty fingerprint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", e.Fingerprint, err)
	}

	final := filepath.Join(s.dir, e.Fingerprint+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", e.Fingerprint, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("commit cache entry %s: %w", e.Fingerprint, err)
	}

	s.entries[e.Fingerprint] = e
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
