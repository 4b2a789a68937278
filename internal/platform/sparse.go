//go:build linux || darwin

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// IsSparse reports whether the open file has at least one hole before
// fileSize. Filesystems without SEEK_HOLE support report false.
//
//nolint:gosec // G115: fd conversion is safe for file descriptors
func IsSparse(fd *os.File, fileSize int64) (bool, error) {
	if fileSize == 0 {
		return false, nil
	}

	rawFd := int(fd.Fd())
	holeStart, err := unix.Seek(rawFd, 0, unix.SEEK_HOLE)
	// Leave the descriptor where readers expect it.
	defer unix.Seek(rawFd, 0, 0) //nolint:errcheck // best-effort rewind

	if err != nil {
		if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENXIO) {
			return false, nil
		}
		return false, err
	}
	if holeStart < fileSize {
		return true, nil
	}

	// The implicit hole at EOF does not count; look for a leading hole
	// that SEEK_HOLE from 0 may not report on some filesystems.
	dataStart, err := unix.Seek(rawFd, 0, unix.SEEK_DATA)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			// No data at all: the whole file is a hole.
			return true, nil
		}
		return false, nil
	}
	return dataStart > 0, nil
}
