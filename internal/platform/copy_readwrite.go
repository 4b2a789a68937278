package platform

import (
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies data with positioned reads and writes (pread/pwrite
// on unix) through a pooled buffer.
func copyReadWrite(params CopyFileParams) (CopyResult, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	var offset int64
	remaining := params.SrcSize

	var totalWritten int64

	for remaining > 0 {
		if params.aborted() {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, ErrAborted
		}

		toRead := int(min(remaining, bufferSize))
		n, err := srcFd.ReadAt(buf[:toRead], offset)
		if err != nil && (err != io.EOF || n == 0) {
			if err == io.EOF {
				break
			}
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, err
		}
		if n == 0 {
			break
		}

		if w, err := params.DstFd.WriteAt(buf[:n], offset); err != nil {
			return CopyResult{BytesWritten: totalWritten + int64(w), Method: ReadWrite}, err
		}

		offset += int64(n)
		remaining -= int64(n)
		totalWritten += int64(n)
		params.report(totalWritten)
	}

	return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, nil
}

// CopyReadWrite is the exported version for use by other packages during testing.
func CopyReadWrite(params CopyFileParams) (CopyResult, error) {
	return copyReadWrite(params)
}
