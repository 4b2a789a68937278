package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bamsammich/ferry/internal/platform"
)

// VerifyWindowed compares src and dst window by window through read-only
// memory maps and stops at the first differing window. A cancelled ctx
// yields false together with ctx.Err(); a genuine mismatch yields false, nil.
// If either file cannot be mapped the comparison continues with buffered
// reads of the same window size.
func VerifyWindowed(ctx context.Context, src, dst string, window int64, progress func(done int64)) (bool, error) {
	sf, df, size, same, err := openPair(src, dst)
	if err != nil || !same || size == 0 {
		return same && err == nil, err
	}
	defer sf.Close()
	defer df.Close()

	window = platform.PageAlign(window)
	var offset int64
	for offset < size {
		if cancelled(ctx) {
			return false, ctx.Err()
		}

		length := min(window, size-offset)
		equal, err := compareMapped(sf, df, offset, length)
		if err != nil {
			// Mapping refused (locks, exotic filesystem): finish buffered.
			return compareReaders(ctx, sf, df, offset, size, window, progress)
		}
		if !equal {
			return false, nil
		}
		offset += length
		if progress != nil {
			progress(offset)
		}
	}
	return true, nil
}

func compareMapped(sf, df *os.File, offset, length int64) (bool, error) {
	a, err := platform.MapWindow(sf, offset, length)
	if err != nil {
		return false, err
	}
	defer platform.Unmap(a) //nolint:errcheck // read-only mapping

	b, err := platform.MapWindow(df, offset, length)
	if err != nil {
		return false, err
	}
	defer platform.Unmap(b) //nolint:errcheck // read-only mapping

	return bytes.Equal(a, b), nil
}

// CompareFiles performs a buffered sequential byte comparison of src and
// dst using bufSize reads.
func CompareFiles(ctx context.Context, src, dst string, bufSize int64, progress func(done int64)) (bool, error) {
	sf, df, size, same, err := openPair(src, dst)
	if err != nil || !same || size == 0 {
		return same && err == nil, err
	}
	defer sf.Close()
	defer df.Close()
	return compareReaders(ctx, sf, df, 0, size, bufSize, progress)
}

func compareReaders(ctx context.Context, sf, df *os.File, offset, size, bufSize int64, progress func(done int64)) (bool, error) {
	bufA := make([]byte, bufSize)
	bufB := make([]byte, bufSize)
	sr := io.NewSectionReader(sf, offset, size-offset)
	dr := io.NewSectionReader(df, offset, size-offset)

	done := offset
	for done < size {
		if cancelled(ctx) {
			return false, ctx.Err()
		}
		n := int(min(bufSize, size-done))
		if _, err := io.ReadFull(sr, bufA[:n]); err != nil {
			return false, fmt.Errorf("read %s: %w", sf.Name(), err)
		}
		if _, err := io.ReadFull(dr, bufB[:n]); err != nil {
			return false, fmt.Errorf("read %s: %w", df.Name(), err)
		}
		if !bytes.Equal(bufA[:n], bufB[:n]) {
			return false, nil
		}
		done += int64(n)
		if progress != nil {
			progress(done)
		}
	}
	return true, nil
}

// openPair opens both files when their sizes match. same is false on a size
// mismatch; files are only returned (and must be closed) when same is true
// and size is non-zero.
func openPair(src, dst string) (sf, df *os.File, size int64, same bool, err error) {
	si, err := os.Stat(src)
	if err != nil {
		return nil, nil, 0, false, fmt.Errorf("stat %s: %w", src, err)
	}
	di, err := os.Stat(dst)
	if err != nil {
		return nil, nil, 0, false, fmt.Errorf("stat %s: %w", dst, err)
	}
	if si.Size() != di.Size() {
		return nil, nil, 0, false, nil
	}
	if si.Size() == 0 {
		return nil, nil, 0, true, nil
	}

	sf, err = os.Open(src)
	if err != nil {
		return nil, nil, 0, false, fmt.Errorf("open %s: %w", src, err)
	}
	df, err = os.Open(dst)
	if err != nil {
		sf.Close()
		return nil, nil, 0, false, fmt.Errorf("open %s: %w", dst, err)
	}
	return sf, df, si.Size(), true, nil
}

// VerifyHash re-reads dst in chunkSize reads with alg and compares the
// digest with expected (hex). A non-nil error means hashing could not
// complete.
func VerifyHash(ctx context.Context, dst, expected string, alg HashAlgorithm, chunkSize int, progress func(done int64)) (bool, error) {
	got, err := HashFile(ctx, dst, alg, chunkSize, progress)
	if err != nil {
		return false, err
	}
	return got == expected, nil
}
