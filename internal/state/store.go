package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseDir is the default whitebox data directory.
	DefaultBaseDir = ".agents/wb"

	// SessionsDir holds one JSON record per session.
	SessionsDir = "sessions"
)

// Store persists session records as one JSON file per session id.
// Writes go through a temp-file-then-rename so a concurrent reader never
// observes a torn record. Checkpoints from one session are sequential, so
// the store guards against torn writes, not true concurrent writers.
type Store struct {
	// BaseDir is the root data directory (e.g., .agents/wb).
	BaseDir string

	mu sync.Mutex
}

// NewStore creates a store rooted at baseDir. An empty baseDir selects
// DefaultBaseDir.
func NewStore(baseDir string) *Store {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return &Store{BaseDir: baseDir}
}

// NewRecord returns a freshly-initialized default record for a session:
// confidence 0, risk 0, turn 0, empty ledgers.
func NewRecord(sessionID string) *Record {
	now := time.Now().UTC()
	return &Record{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Load returns the persisted record for sessionID. A missing or corrupt
// record is never an error: the caller always gets a valid default record
// so gating can proceed from a known state.
func (s *Store) Load(sessionID string) *Record {
	data, err := os.ReadFile(s.recordPath(sessionID))
	if err != nil {
		return NewRecord(sessionID)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return NewRecord(sessionID)
	}
	if rec.SessionID == "" {
		rec.SessionID = sessionID
	}
	return &rec
}

// Save persists the record atomically (write to temp, rename into place).
func (s *Store) Save(rec *Record) error {
	if rec.SessionID == "" {
		return ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.UpdatedAt = time.Now().UTC()

	dir := filepath.Join(s.BaseDir, SessionsDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("sync record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.recordPath(rec.SessionID)); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}

// List returns the session ids with persisted records, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.BaseDir, SessionsDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// recordPath returns the file path for a session record. Session ids are
// opaque caller-provided strings, so anything unsafe in a filename is
// flattened first.
func (s *Store) recordPath(sessionID string) string {
	return filepath.Join(s.BaseDir, SessionsDir, sanitizeID(sessionID)+".json")
}

// sanitizeID makes a session id safe to use as a filename.
func sanitizeID(id string) string {
	if id == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
