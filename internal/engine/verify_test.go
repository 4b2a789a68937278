package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyPair(t *testing.T, size int) (src, dst string) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "src")
	dst = filepath.Join(dir, "dst")
	data := writeRandom(t, src, size)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
	return src, dst
}

func TestVerifyWindowed(t *testing.T) {
	ctx := context.Background()

	t.Run("match across windows", func(t *testing.T) {
		src, dst := verifyPair(t, 300<<10)
		var last int64
		ok, err := VerifyWindowed(ctx, src, dst, 64<<10, func(done int64) { last = done })
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(300<<10), last)
	})

	t.Run("mismatch in last window", func(t *testing.T) {
		src, dst := verifyPair(t, 300<<10)
		flipByte(t, dst, 300<<10-1)
		ok, err := VerifyWindowed(ctx, src, dst, 64<<10, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("size mismatch", func(t *testing.T) {
		src, dst := verifyPair(t, 1000)
		require.NoError(t, os.Truncate(dst, 999))
		ok, err := VerifyWindowed(ctx, src, dst, 64<<10, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero length", func(t *testing.T) {
		src, dst := verifyPair(t, 0)
		ok, err := VerifyWindowed(ctx, src, dst, 64<<10, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing destination", func(t *testing.T) {
		src, dst := verifyPair(t, 10)
		require.NoError(t, os.Remove(dst))
		_, err := VerifyWindowed(ctx, src, dst, 64<<10, nil)
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		src, dst := verifyPair(t, 10<<10)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		ok, err := VerifyWindowed(cctx, src, dst, 4096, nil)
		assert.False(t, ok)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCompareFiles(t *testing.T) {
	ctx := context.Background()

	src, dst := verifyPair(t, 100<<10)
	ok, err := CompareFiles(ctx, src, dst, 8<<10, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	flipByte(t, dst, 50<<10)
	ok, err = CompareFiles(ctx, src, dst, 8<<10, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompareReadersFromOffset(t *testing.T) {
	src, dst := verifyPair(t, 20<<10)
	flipByte(t, dst, 100) // before the offset, must be ignored

	sf, err := os.Open(src)
	require.NoError(t, err)
	defer sf.Close()
	df, err := os.Open(dst)
	require.NoError(t, err)
	defer df.Close()

	ok, err := compareReaders(context.Background(), sf, df, 4096, 20<<10, 4096, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyHash(t *testing.T) {
	ctx := context.Background()
	_, dst := verifyPair(t, 50<<10)

	want, err := HashFile(ctx, dst, HashSHA256, 4096, nil)
	require.NoError(t, err)

	ok, err := VerifyHash(ctx, dst, want, HashSHA256, 8192, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	flipByte(t, dst, 0)
	ok, err = VerifyHash(ctx, dst, want, HashSHA256, 8192, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyHash(ctx, filepath.Join(t.TempDir(), "gone"), want, HashSHA256, 8192, nil)
	require.Error(t, err)
}
