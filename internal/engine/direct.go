package engine

import (
	"context"

	"github.com/bamsammich/ferry/internal/platform"
)

// copyDirect hands the whole file to the platform's kernel-assisted copy.
// Cancellation is observed between kernel copy steps.
func (c *call) copyDirect(ctx context.Context) *CopyError {
	fd, cerr := c.createDst()
	if cerr != nil {
		return cerr
	}

	res, err := platform.CopyFile(platform.CopyFileParams{
		SrcPath:   c.src,
		DstFd:     fd,
		SrcSize:   c.size,
		Step:      int64(c.e.cfg.ChunkSize),
		Progress:  c.progress.update,
		Cancelled: func() bool { return cancelled(ctx) },
	})
	c.method = res.Method
	c.bytes = res.BytesWritten
	if err != nil {
		fd.Close()
		return c.ioError(ctx, err, "copy %s to %s", c.src, c.dst)
	}
	if res.BytesWritten != c.size {
		fd.Close()
		return newCopyError(KindCopyIO, nil, "short copy: wrote %d of %d bytes", res.BytesWritten, c.size).
			withHint("the source may have changed during the copy")
	}

	if cerr := c.finishDst(fd); cerr != nil {
		return cerr
	}
	c.e.log.Debug("direct copy done", "dst", c.dst, "method", res.Method, "bytes", res.BytesWritten)
	return nil
}

// verifyDirect compares source and destination window by window.
func (c *call) verifyDirect(ctx context.Context) *CopyError {
	ok, err := VerifyWindowed(ctx, c.src, c.dst, c.e.cfg.WindowSize, c.verifyProgress.update)
	if err != nil {
		if cancelled(ctx) {
			return c.cancelledError(err)
		}
		return newCopyError(KindVerificationUnavailable, err, "compare %s with %s", c.src, c.dst)
	}
	c.verifyMethod = VerifyWindowCompare
	if !ok {
		return c.mismatch()
	}
	return nil
}
