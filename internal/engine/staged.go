package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// copyStaged streams the source in ChunkSize pieces, hashing each chunk
// before it is written. The digest becomes the verification reference.
func (c *call) copyStaged(ctx context.Context) *CopyError {
	h, err := NewHash(c.e.hashAlg)
	if err != nil {
		return newCopyError(KindCopyIO, err, "start %s hash", c.e.hashAlg)
	}

	in, err := os.Open(c.src)
	if err != nil {
		return newCopyError(KindCopyIO, err, "open %s", c.src)
	}
	defer in.Close()

	out, cerr := c.createDst()
	if cerr != nil {
		return cerr
	}

	var r io.Reader = in
	if c.e.cfg.BWLimit > 0 {
		r = newRateLimitedReader(ctx, in, NewBWLimiter(c.e.cfg.BWLimit, c.e.cfg.ChunkSize))
	}

	buf := make([]byte, c.e.cfg.ChunkSize)
	for {
		if cancelled(ctx) {
			out.Close()
			return c.cancelledError(ctx.Err())
		}

		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			h.Write(buf[:n]) //nolint:errcheck // hash.Hash.Write never fails
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				return newCopyError(KindCopyIO, err, "write %s", c.dst)
			}
			c.bytes += int64(n)
			c.progress.update(c.bytes)
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			out.Close()
			return c.ioError(ctx, rerr, "read %s", c.src)
		}
	}

	if c.bytes != c.size {
		out.Close()
		return newCopyError(KindCopyIO, nil, "short copy: wrote %d of %d bytes", c.bytes, c.size).
			withHint("the source may have changed during the copy")
	}
	if cerr := c.finishDst(out); cerr != nil {
		return cerr
	}

	c.hash = hex.EncodeToString(h.Sum(nil))
	c.e.log.Debug("staged copy done", "dst", c.dst, "bytes", c.bytes, "hash", c.e.hashAlg, "digest", c.hash)
	return nil
}

// verifyStaged re-hashes the destination and compares it with the digest
// taken during the copy. If hashing the destination fails and fallback is
// enabled, a byte comparison against the source decides instead.
func (c *call) verifyStaged(ctx context.Context) *CopyError {
	chunk := c.e.cfg.ChunkSize
	ok, err := c.e.verifyHash(ctx, c.dst, c.hash, c.e.hashAlg, chunk, c.verifyProgress.update)
	if err == nil {
		c.verifyMethod = VerifyHashCompare
		if !ok {
			return c.mismatch()
		}
		return nil
	}
	if cancelled(ctx) {
		return c.cancelledError(err)
	}
	if c.e.cfg.DisableVerifyFallback {
		return newCopyError(KindVerificationUnavailable, err, "hash %s", c.dst).
			withHint("enable verify fallback to compare bytes instead")
	}

	c.e.log.Warn("hash verification unavailable, comparing bytes", "dst", c.dst, "error", err)
	c.warn("hash verification unavailable; verified by byte comparison")
	ok, err = CompareFiles(ctx, c.src, c.dst, int64(chunk), c.verifyProgress.update)
	if err != nil {
		if cancelled(ctx) {
			return c.cancelledError(err)
		}
		return newCopyError(KindVerificationUnavailable, err, "compare %s with %s", c.src, c.dst)
	}
	c.verifyMethod = VerifyByteCompare
	if !ok {
		return c.mismatch()
	}
	return nil
}
