//go:build darwin

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeSpace returns the bytes available to an unprivileged user on the
// filesystem containing path.
func FreeSpace(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	//nolint:gosec // G115: block counts fit in int64 on any real filesystem
	return int64(st.Bavail) * int64(st.Bsize), nil
}

// IsNetworkFS reports whether path lives on a filesystem without MNT_LOCAL.
func IsNetworkFS(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Flags&unix.MNT_LOCAL == 0, nil
}
