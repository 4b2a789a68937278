package engine

import (
	"crypto/rand"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/platform"
)

// newTestEngine builds an engine whose locality probe reports every path
// as local. mutate adjusts the config before construction.
func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.SafetyMargin = 0
	cfg.ProgressInterval = time.Nanosecond
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	e.networkFS = func(string) (bool, error) { return false, nil }
	return e
}

// writeRandom creates path with size random bytes and returns them.
func writeRandom(t *testing.T, path string, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return data
}

// setMtime pins path's access and modification times to distinct
// sub-second values so precision loss is visible.
func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime.Add(-time.Hour), mtime))
}

func mtimeOf(t *testing.T, path string) time.Time {
	t.Helper()
	times, err := platform.ReadTimes(path)
	require.NoError(t, err)
	return times.Modified
}

// backups lists parked destinations left in dir.
func backups(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*"+BackupSuffix))
	require.NoError(t, err)
	return matches
}

func flipByte(t *testing.T, path string, offset int64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()
	b := make([]byte, 1)
	_, err = f.ReadAt(b, offset)
	require.NoError(t, err)
	b[0] ^= 0xff
	_, err = f.WriteAt(b, offset)
	require.NoError(t, err)
}
