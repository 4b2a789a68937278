//go:build darwin

package platform

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ReadTimes returns the birth, modification and access times of path.
func ReadTimes(path string) (Times, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Times{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Times{
		Created:  time.Unix(st.Btim.Sec, st.Btim.Nsec),
		Modified: time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Accessed: time.Unix(st.Atim.Sec, st.Atim.Nsec),
	}, nil
}

// WriteTimes sets the modification and access times of path, then the
// birth time when Created is set. Darwin lacks UTIME_OMIT, so a zero
// Accessed is replaced by Modified.
func WriteTimes(path string, t Times) error {
	atime := t.Accessed
	if atime.IsZero() {
		atime = t.Modified
	}
	times := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(t.Modified.UnixNano()),
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, path, times, 0); err != nil {
		return fmt.Errorf("utimensat %s: %w", path, err)
	}
	if t.Created.IsZero() {
		return nil
	}
	return setBirthTime(path, t.Created)
}

// setBirthTime runs after utimensat, which pulls the birth time back to
// an older mtime.
func setBirthTime(path string, created time.Time) error {
	attrs := unix.Attrlist{
		Bitmapcount: unix.ATTR_BIT_MAP_COUNT,
		Commonattr:  unix.ATTR_CMN_CRTIME,
	}
	ts := unix.NsecToTimespec(created.UnixNano())
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&ts)), unsafe.Sizeof(ts))
	if err := unix.Setattrlist(path, &attrs, buf, 0); err != nil {
		return fmt.Errorf("setattrlist %s: %w", path, err)
	}
	return nil
}
