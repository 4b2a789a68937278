//go:build !linux && !darwin

package platform

import "os"

// IsSparse always reports false where SEEK_HOLE is unavailable.
func IsSparse(_ *os.File, _ int64) (bool, error) {
	return false, nil
}
