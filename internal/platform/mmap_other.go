//go:build !unix

package platform

import "os"

// MapWindow is unavailable here; callers fall back to buffered reads.
func MapWindow(_ *os.File, _, _ int64) ([]byte, error) {
	return nil, ErrUnsupported
}

// Unmap is a no-op where MapWindow is unsupported.
func Unmap(_ []byte) error { return nil }
