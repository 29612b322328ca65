// Package cachestore persists normalized payloads as JSON records on local disk.
//
// The store is deliberately tolerant: read and write errors degrade to cache
// misses so callers always proceed to a live fetch. There is no locking across
// processes; concurrent writers race with last-writer-wins semantics and the
// bounded staleness policy makes that acceptable.
package cachestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/btcnav/btcnav/internal/observ"
)

// Store is the cache contract used by the endpoint handlers
type Store interface {
	// Get returns the payload if a record exists and is no older than maxAge.
	// The boundary is inclusive: age == maxAge is still a hit.
	Get(logicalKey string, maxAge time.Duration) ([]byte, bool)

	// GetStale is the last-resort lookup with a much larger age ceiling.
	// It also reports the record's age so callers can surface freshness.
	GetStale(logicalKey string, maxAge time.Duration) ([]byte, time.Duration, bool)

	// Set overwrites the record for logicalKey, stamped with the current time.
	Set(logicalKey string, payload []byte) error

	// Clear removes the record for logicalKey. Returns the number removed (0 or 1).
	Clear(logicalKey string) int

	// ClearAll removes every record. Returns the number removed.
	ClearAll() int
}

type record struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"written_at"`
}

// FileStore keeps one JSON file per logical key under a single directory
type FileStore struct {
	dir    string
	logger *logrus.Entry
	now    func() time.Time
}

// NewFileStore creates the cache directory if needed and returns the store
func NewFileStore(dir string, logger *logrus.Logger) *FileStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.WithError(err).WithField("dir", dir).Warn("failed to create cache dir")
	}
	return &FileStore{
		dir:    dir,
		logger: logger.WithField("component", "cachestore"),
		now:    time.Now,
	}
}

// path derives the record filename from a content hash of the logical key,
// keeping arbitrary key strings filesystem-safe.
func (fs *FileStore) path(logicalKey string) string {
	sum := sha256.Sum256([]byte(logicalKey))
	return filepath.Join(fs.dir, hex.EncodeToString(sum[:8])+".json")
}

func (fs *FileStore) read(logicalKey string) (*record, bool) {
	data, err := os.ReadFile(fs.path(logicalKey))
	if err != nil {
		if !os.IsNotExist(err) {
			fs.logger.WithError(err).WithField("key", logicalKey).Warn("cache read failed")
		}
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		fs.logger.WithError(err).WithField("key", logicalKey).Warn("cache record corrupt")
		return nil, false
	}

	return &rec, true
}

func (fs *FileStore) Get(logicalKey string, maxAge time.Duration) ([]byte, bool) {
	rec, ok := fs.read(logicalKey)
	if !ok {
		observ.IncCounter("cache_miss_total", map[string]string{"key": logicalKey})
		return nil, false
	}

	if fs.now().Sub(rec.WrittenAt) > maxAge {
		observ.IncCounter("cache_expired_total", map[string]string{"key": logicalKey})
		return nil, false
	}

	observ.IncCounter("cache_hit_total", map[string]string{"key": logicalKey})
	return rec.Payload, true
}

func (fs *FileStore) GetStale(logicalKey string, maxAge time.Duration) ([]byte, time.Duration, bool) {
	rec, ok := fs.read(logicalKey)
	if !ok {
		return nil, 0, false
	}

	age := fs.now().Sub(rec.WrittenAt)
	if age > maxAge {
		return nil, 0, false
	}

	observ.IncCounter("cache_stale_read_total", map[string]string{"key": logicalKey})
	return rec.Payload, age, true
}

func (fs *FileStore) Set(logicalKey string, payload []byte) error {
	rec := record{
		Key:       logicalKey,
		Payload:   payload,
		WrittenAt: fs.now(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		fs.logger.WithError(err).Warn("cache dir create failed")
		return err
	}

	if err := os.WriteFile(fs.path(logicalKey), data, 0o644); err != nil {
		fs.logger.WithError(err).WithField("key", logicalKey).Warn("cache write failed")
		return err
	}

	observ.IncCounter("cache_set_total", map[string]string{"key": logicalKey})
	return nil
}

func (fs *FileStore) Clear(logicalKey string) int {
	if err := os.Remove(fs.path(logicalKey)); err != nil {
		// Missing records are not an error for an administrative clear
		return 0
	}
	observ.IncCounter("cache_clear_total", map[string]string{"key": logicalKey})
	return 1
}

func (fs *FileStore) ClearAll() int {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(fs.dir, entry.Name())); err == nil {
			removed++
		}
	}

	fs.logger.WithField("removed", removed).Info("cache cleared")
	return removed
}
