package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// maxPathLegacy is the classic Windows MAX_PATH minus room for a file name.
const maxPathLegacy = 248

var errUNCPath = errors.New("network UNC paths are not supported; map the share to a local drive or mount point first")

// validatePath rejects unusable paths and returns the form the engine
// operates on.
func validatePath(p string, longPaths bool) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("empty path")
	}
	if isUNC(p, runtime.GOOS) {
		return "", errUNCPath
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	if longPaths {
		abs = extendedLengthPath(abs, runtime.GOOS)
	}
	return abs, nil
}

// isUNC reports whether p names a share on another host. The Windows
// extended-length prefix for local drives (\\?\C:\) is not a share, and
// a leading // is an ordinary absolute path outside Windows.
func isUNC(p, goos string) bool {
	if strings.HasPrefix(p, `\\?\`) || strings.HasPrefix(p, `\\.\`) {
		return strings.HasPrefix(strings.ToUpper(p[4:]), `UNC\`)
	}
	if strings.HasPrefix(p, `\\`) {
		return true
	}
	return goos == "windows" && strings.HasPrefix(p, `//`)
}

// extendedLengthPath prefixes long absolute Windows paths with \\?\ so
// they bypass MAX_PATH. Other platforms have no such limit.
func extendedLengthPath(abs, goos string) string {
	if goos != "windows" || len(abs) < maxPathLegacy || strings.HasPrefix(abs, `\\?\`) {
		return abs
	}
	return `\\?\` + strings.ReplaceAll(abs, "/", `\`)
}
