//go:build linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Filesystem magic numbers (statfs f_type) of network and cluster
// filesystems. FUSE is deliberately absent: it is local far more often
// than not.
var networkFSMagic = map[uint32]string{
	0x6969:     "nfs",
	0x517b:     "smb",
	0xff534d42: "cifs",
	0xfe534d42: "smb2",
	0x73757245: "coda",
	0x5346414f: "afs",
	0x00c36400: "ceph",
	0x01021997: "9p",
	0x47504653: "gpfs",
	0x0bd00bd0: "lustre",
}

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

// IsNetworkFS reports whether path lives on a network-mounted filesystem.
func IsNetworkFS(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, fmt.Errorf("statfs %s: %w", path, err)
	}
	//nolint:gosec // G115: f_type is a 32-bit magic on every architecture
	_, remote := networkFSMagic[uint32(st.Type)]
	return remote, nil
}
