package engine

import (
	"errors"
	"path/filepath"

	"github.com/bamsammich/ferry/internal/platform"
)

// Strategy is the copy path chosen for one file.
type Strategy int

const (
	Direct Strategy = iota // kernel-assisted whole-file copy
	Staged                 // chunked streaming copy with inline hashing
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case Staged:
		return "staged"
	default:
		return "unknown"
	}
}

// SelectStrategy picks Staged for files at or above threshold and for any
// transfer touching a non-local volume, Direct otherwise.
func SelectStrategy(size int64, srcLocal, dstLocal bool, threshold int64) Strategy {
	if size >= threshold || !srcLocal || !dstLocal {
		return Staged
	}
	return Direct
}

// DetermineStrategy probes the locality of src and of dst's directory and
// selects a strategy for a file of the given size. It performs no copy.
func (e *Engine) DetermineStrategy(src, dst string, size int64) Strategy {
	return SelectStrategy(size, e.isLocal(src), e.isLocal(filepath.Dir(dst)), e.cfg.StrategyThreshold)
}

// isLocal treats probe failures as non-local so the safer Staged path wins.
// Platforms without a locality probe are assumed local.
func (e *Engine) isLocal(path string) bool {
	remote, err := e.networkFS(path)
	if errors.Is(err, platform.ErrUnsupported) {
		return true
	}
	if err != nil {
		e.log.Debug("locality probe failed", "path", path, "error", err)
		return false
	}
	return !remote
}
