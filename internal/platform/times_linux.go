//go:build linux

package platform

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ReadTimes returns the birth, modification and access times of path.
// Birth time comes from statx(2) and is left zero when the filesystem
// does not report it.
func ReadTimes(path string) (Times, error) {
	var stx unix.Statx_t
	mask := unix.STATX_BTIME | unix.STATX_MTIME | unix.STATX_ATIME
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, mask, &stx); err != nil {
		if err != unix.ENOSYS {
			return Times{}, fmt.Errorf("statx %s: %w", path, err)
		}
		return statTimes(path)
	}

	t := Times{
		Modified: statxTime(stx.Mtime),
		Accessed: statxTime(stx.Atime),
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		t.Created = statxTime(stx.Btime)
	}
	return t, nil
}

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec))
}

// statTimes is the pre-4.11 kernel path without birth time.
func statTimes(path string) (Times, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Times{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Times{
		Modified: time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Accessed: time.Unix(st.Atim.Sec, st.Atim.Nsec),
	}, nil
}

// WriteTimes sets the modification and access times of path with
// nanosecond precision. Linux offers no call to set a birth time, so
// t.Created is not applied. A zero Accessed leaves atime untouched.
func WriteTimes(path string, t Times) error {
	atime := unix.Timespec{Nsec: unix.UTIME_OMIT}
	if !t.Accessed.IsZero() {
		atime = unix.NsecToTimespec(t.Accessed.UnixNano())
	}
	times := []unix.Timespec{
		atime,
		unix.NsecToTimespec(t.Modified.UnixNano()),
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, path, times, 0); err != nil {
		return fmt.Errorf("utimensat %s: %w", path, err)
	}
	return nil
}
