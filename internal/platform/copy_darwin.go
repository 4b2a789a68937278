//go:build darwin

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// CopyFile tries clonefile first (for whole-file CoW copies), then falls back
// to read/write on macOS. clonefile refuses an existing target, so the
// empty destination created by the caller is swapped out for the clone.
// The caller's descriptor then points at the unlinked placeholder, so the
// file now at the destination path is synced here.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	if params.aborted() {
		return CopyResult{}, ErrAborted
	}

	dst := params.DstFd.Name()
	if info, err := params.DstFd.Stat(); err == nil && info.Size() == 0 {
		if err := os.Remove(dst); err == nil {
			err = unix.Clonefile(params.SrcPath, dst, 0)
			if err == nil {
				if err := syncPath(dst); err != nil {
					return CopyResult{Method: Clonefile}, err
				}
				params.report(params.SrcSize)
				return CopyResult{BytesWritten: params.SrcSize, Method: Clonefile}, nil
			}
			if !isFallbackCloneErr(err) {
				return CopyResult{}, err
			}
			// Recreate the placeholder the caller's descriptor pointed at.
			fd, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
			if err != nil {
				return CopyResult{}, err
			}
			defer fd.Close()
			params.DstFd = fd
			res, err := copyReadWrite(params)
			if err != nil {
				return res, err
			}
			return res, fd.Sync()
		}
	}

	return copyReadWrite(params)
}

func syncPath(path string) error {
	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fd.Close()
	return fd.Sync()
}

func isFallbackCloneErr(err error) bool {
	switch err {
	case unix.ENOTSUP, unix.EXDEV, unix.EEXIST:
		return true
	}
	return false
}
