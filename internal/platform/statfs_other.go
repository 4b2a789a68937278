//go:build !linux && !darwin

package platform

// FreeSpace is not implemented on this platform.
func FreeSpace(_ string) (int64, error) {
	return 0, ErrUnsupported
}

// IsNetworkFS is not implemented on this platform.
func IsNetworkFS(_ string) (bool, error) {
	return false, ErrUnsupported
}
