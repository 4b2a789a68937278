//go:build unix

package platform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapWindow maps length bytes of f starting at offset read-only.
// offset must be page aligned. The returned slice must be released
// with Unmap.
//
//nolint:gosec // G115: fd conversion is safe for file descriptors
func MapWindow(f *os.File, offset, length int64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	data, err := unix.Mmap(int(f.Fd()), offset, int(length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s@%d: %w", f.Name(), offset, err)
	}
	return data, nil
}

// Unmap releases a mapping returned by MapWindow.
func Unmap(data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}
