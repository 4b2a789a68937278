//go:build !linux && !darwin

package platform

// CopyFile falls back to read/write on unsupported platforms.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	return copyReadWrite(params)
}
