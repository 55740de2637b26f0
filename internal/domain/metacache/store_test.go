package metacache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir, discard())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	entry := Entry{
		Fingerprint:     "abc123",
		Bank:            "kaspi_gold",
		SourcePath:      "/data/stmt.pdf",
		ProcessedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		OutputPath:      "/out/stmt.json",
		RecordCount:     42,
		ValidationFlags: []string{"closing_balance_mismatch"},
	}
	require.NoError(t, s.Record(entry))

	got, ok := s.Lookup("abc123")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	// reopened store sees the same entry
	s2, err := Load(dir, discard())
	require.NoError(t, err)
	got, ok = s2.Lookup("abc123")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	_, ok = s2.Lookup("unknown")
	assert.False(t, ok)
}

func TestRecordReplacesEntry(t *testing.T) {
	s, err := Load(t.TempDir(), discard())
	require.NoError(t, err)

	require.NoError(t, s.Record(Entry{Fingerprint: "fp", RecordCount: 1}))
	require.NoError(t, s.Record(Entry{Fingerprint: "fp", RecordCount: 7}))

	got, ok := s.Lookup("fp")
	require.True(t, ok)
	assert.Equal(t, 7, got.RecordCount)
	assert.Equal(t, 1, s.Len())
}

func TestRecordRejectsEmptyFingerprint(t *testing.T) {
	s, err := Load(t.TempDir(), discard())
	require.NoError(t, err)
	require.Error(t, s.Record(Entry{}))
}

func TestLoadRejectsMalformedEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := Load(dir, discard())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheCorruption)
}

func TestLoadRejectsMismatchedFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "aaa.json"),
		[]byte(`{"fingerprint":"bbb"}`),
		0o644,
	))

	_, err := Load(dir, discard())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheCorruption)
}

func TestLoadIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644))

	s, err := Load(dir, discard())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
