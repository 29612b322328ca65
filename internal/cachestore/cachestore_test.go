package cachestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)
	return NewFileStore(t.TempDir(), logger)
}

func TestRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	payload := []byte(`{"price_usd":107000.5,"source":"coingecko"}`)
	require.NoError(t, fs.Set("price:bitcoin", payload))

	got, ok := fs.Get("price:bitcoin", time.Hour)
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))
}

func TestMissIsNotError(t *testing.T) {
	fs := newTestStore(t)

	_, ok := fs.Get("never-written", time.Hour)
	assert.False(t, ok)

	_, _, ok = fs.GetStale("never-written", 7*24*time.Hour)
	assert.False(t, ok)
}

func TestStalenessBoundary(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Set("k", []byte(`1`)))

	tests := []struct {
		name    string
		elapsed time.Duration
		maxAge  time.Duration
		wantHit bool
	}{
		{"well within window", 30 * time.Second, time.Minute, true},
		{"exactly at boundary is a hit", time.Minute, time.Minute, true},
		{"just past boundary", time.Minute + time.Second, time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			written := readWrittenAt(t, fs, "k")
			fs.now = func() time.Time { return written.Add(tt.elapsed) }
			defer func() { fs.now = time.Now }()

			_, ok := fs.Get("k", tt.maxAge)
			assert.Equal(t, tt.wantHit, ok)
		})
	}
}

func readWrittenAt(t *testing.T, fs *FileStore, key string) time.Time {
	t.Helper()
	rec, ok := fs.read(key)
	require.True(t, ok)
	return rec.WrittenAt
}

func TestGetStaleReportsAge(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Set("k", []byte(`{"v":1}`)))

	written := readWrittenAt(t, fs, "k")
	fs.now = func() time.Time { return written.Add(3 * time.Hour) }

	// Too old for the fresh window
	_, ok := fs.Get("k", time.Minute)
	assert.False(t, ok)

	// Still usable as last-resort fallback
	payload, age, ok := fs.GetStale("k", 7*24*time.Hour)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":1}`, string(payload))
	assert.InDelta(t, (3 * time.Hour).Seconds(), age.Seconds(), 1)

	// Beyond even the stale horizon
	fs.now = func() time.Time { return written.Add(8 * 24 * time.Hour) }
	_, _, ok = fs.GetStale("k", 7*24*time.Hour)
	assert.False(t, ok)
}

func TestOverwrite(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Set("k", []byte(`"old"`)))
	require.NoError(t, fs.Set("k", []byte(`"new"`)))

	got, ok := fs.Get("k", time.Hour)
	require.True(t, ok)
	assert.Equal(t, `"new"`, string(got))
}

func TestClear(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Set("a", []byte(`1`)))
	require.NoError(t, fs.Set("b", []byte(`2`)))

	assert.Equal(t, 1, fs.Clear("a"))
	assert.Equal(t, 0, fs.Clear("a"), "clearing a missing record is tolerated")

	_, ok := fs.Get("a", time.Hour)
	assert.False(t, ok)

	assert.Equal(t, 1, fs.ClearAll())
	_, ok = fs.Get("b", time.Hour)
	assert.False(t, ok)
}

func TestCorruptRecordIsAMiss(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Set("k", []byte(`1`)))

	require.NoError(t, os.WriteFile(fs.path("k"), []byte("not json"), 0o644))

	_, ok := fs.Get("k", time.Hour)
	assert.False(t, ok)
}

func TestKeysDoNotCollide(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Set("price:bitcoin", []byte(`1`)))
	require.NoError(t, fs.Set("holdings:companies", []byte(`2`)))

	assert.NotEqual(t, fs.path("price:bitcoin"), fs.path("holdings:companies"))
	assert.Equal(t, ".json", filepath.Ext(fs.path("price:bitcoin")))

	got, ok := fs.Get("price:bitcoin", time.Hour)
	require.True(t, ok)
	assert.Equal(t, `1`, string(got))
}
