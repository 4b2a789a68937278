//go:build !linux && !darwin

package platform

import (
	"fmt"
	"os"
)

// ReadTimes returns the modification time of path; other fields are
// approximated by it.
func ReadTimes(path string) (Times, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Times{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Times{Modified: info.ModTime(), Accessed: info.ModTime()}, nil
}

// WriteTimes sets the access and modification times of path.
func WriteTimes(path string, t Times) error {
	atime := t.Accessed
	if atime.IsZero() {
		atime = t.Modified
	}
	if err := os.Chtimes(path, atime, t.Modified); err != nil {
		return fmt.Errorf("chtimes %s: %w", path, err)
	}
	return nil
}
