package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// HashAlgorithm names a streaming digest the engine can use.
type HashAlgorithm int

const (
	HashBLAKE3 HashAlgorithm = iota
	HashSHA256
)

func (a HashAlgorithm) String() string {
	switch a {
	case HashBLAKE3:
		return "blake3"
	case HashSHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// ParseHashAlgorithm parses "blake3" or "sha256".
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blake3", "":
		return HashBLAKE3, nil
	case "sha256", "sha-256":
		return HashSHA256, nil
	default:
		return 0, fmt.Errorf("unknown hash algorithm %q (use blake3 or sha256)", s)
	}
}

// Digests of the empty input, used as a known-answer self test.
var emptyDigests = map[HashAlgorithm]string{
	HashBLAKE3: "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
	HashSHA256: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
}

// hashFactories is swapped in tests to simulate an unavailable algorithm.
var hashFactories = map[HashAlgorithm]func() hash.Hash{
	HashBLAKE3: func() hash.Hash { return blake3.New() },
	HashSHA256: sha256.New,
}

// NewHash returns a fresh accumulator for alg.
func NewHash(alg HashAlgorithm) (hash.Hash, error) {
	factory, ok := hashFactories[alg]
	if !ok || factory == nil {
		return nil, fmt.Errorf("hash algorithm %s unavailable", alg)
	}
	return factory(), nil
}

// negotiateHash resolves the algorithm used for the lifetime of an engine.
// The preferred algorithm must construct and pass its known-answer test;
// otherwise SHA-256 is used and fellBack is true.
func negotiateHash(preferred HashAlgorithm) (alg HashAlgorithm, fellBack bool, err error) {
	if hashSelfTest(preferred) == nil {
		return preferred, false, nil
	}
	if preferred != HashSHA256 {
		if err := hashSelfTest(HashSHA256); err == nil {
			return HashSHA256, true, nil
		}
	}
	return 0, false, fmt.Errorf("no usable hash algorithm (wanted %s)", preferred)
}

func hashSelfTest(alg HashAlgorithm) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hash %s self test panicked: %v", alg, r)
		}
	}()

	h, err := NewHash(alg)
	if err != nil {
		return err
	}
	want, _ := hex.DecodeString(emptyDigests[alg]) //nolint:errcheck // constant input
	if !bytes.Equal(h.Sum(nil), want) {
		return fmt.Errorf("hash %s failed known-answer test", alg)
	}
	return nil
}

// HashFile computes the digest of the file at path by streaming it in
// chunkSize reads, returning the hex-encoded digest. Cancellation is checked
// before every read.
func HashFile(ctx context.Context, path string, alg HashAlgorithm, chunkSize int, progress func(done int64)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h, err := NewHash(alg)
	if err != nil {
		return "", err
	}

	buf := make([]byte, chunkSize)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, rerr := io.ReadFull(f, buf)
		if n > 0 {
			h.Write(buf[:n]) //nolint:errcheck // hash.Hash.Write never fails
			done += int64(n)
			if progress != nil {
				progress(done)
			}
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			return "", fmt.Errorf("hash %s: %w", path, rerr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
