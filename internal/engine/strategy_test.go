package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/ferry/internal/platform"
)

func TestSelectStrategy(t *testing.T) {
	const threshold = 128 << 20
	tests := []struct {
		name     string
		size     int64
		srcLocal bool
		dstLocal bool
		want     Strategy
	}{
		{"small local", 10 << 10, true, true, Direct},
		{"zero local", 0, true, true, Direct},
		{"just below threshold", threshold - 1, true, true, Direct},
		{"at threshold", threshold, true, true, Staged},
		{"above threshold", threshold + 1, true, true, Staged},
		{"remote source", 1, false, true, Staged},
		{"remote destination", 1, true, false, Staged},
		{"both remote", 1, false, false, Staged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.size, tt.srcLocal, tt.dstLocal, threshold))
		})
	}
}

func TestDetermineStrategy(t *testing.T) {
	e := newTestEngine(t, nil)

	var probed []string
	e.networkFS = func(path string) (bool, error) {
		probed = append(probed, path)
		return false, nil
	}
	got := e.DetermineStrategy("/a/src.bin", "/b/out/dst.bin", 1024)
	assert.Equal(t, Direct, got)
	assert.Equal(t, []string{"/a/src.bin", "/b/out"}, probed)

	for range 3 {
		assert.Equal(t, got, e.DetermineStrategy("/a/src.bin", "/b/out/dst.bin", 1024), "deterministic")
	}
}

func TestDetermineStrategyProbeFailures(t *testing.T) {
	e := newTestEngine(t, nil)

	e.networkFS = func(string) (bool, error) { return false, errors.New("statfs: permission denied") }
	assert.Equal(t, Staged, e.DetermineStrategy("/a", "/b/c", 1), "unknown locality is treated as remote")

	e.networkFS = func(string) (bool, error) { return false, platform.ErrUnsupported }
	assert.Equal(t, Direct, e.DetermineStrategy("/a", "/b/c", 1), "no probe on this platform")
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "direct", Direct.String())
	assert.Equal(t, "staged", Staged.String())
	assert.Equal(t, "unknown", Strategy(7).String())
}
