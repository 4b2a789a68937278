package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bamsammich/ferry/internal/platform"
)

// BackupSuffix ends the name of every parked destination.
const BackupSuffix = ".ferry-bak"

// ErrAlreadyRestored is returned by Restore on a record that was already
// put back.
var ErrAlreadyRestored = errors.New("backup already restored")

// ErrAlreadyDiscarded is returned by Restore or Discard on a record whose
// backup was already deleted.
var ErrAlreadyDiscarded = errors.New("backup already discarded")

// BackupRecord is a destination file parked beside itself while a copy
// replaces it.
type BackupRecord struct {
	Dst       string
	Path      string
	Times     platform.Times
	Size      int64
	restored  bool
	discarded bool
}

// RollbackError means a parked destination could not be put back. The
// backup file at BackupPath is the only remaining copy of the original.
type RollbackError struct {
	Err        error
	Dst        string
	BackupPath string
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("restore %s from backup %s: %v", e.Dst, e.BackupPath, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }

// backupPath returns a unique sibling of dst on the same volume.
func backupPath(dst string) string {
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.New().String()[:8], BackupSuffix))
}

// CreateBackup parks an existing dst under a unique sibling name by atomic
// rename, capturing its timestamps first. It returns nil, nil when dst does
// not exist.
func CreateBackup(dst string) (*BackupRecord, error) {
	info, err := os.Lstat(dst)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dst, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", dst)
	}

	times, err := platform.ReadTimes(dst)
	if err != nil {
		return nil, err
	}

	rec := &BackupRecord{
		Dst:   dst,
		Path:  backupPath(dst),
		Times: times,
		Size:  info.Size(),
	}
	if err := os.Rename(dst, rec.Path); err != nil {
		return nil, fmt.Errorf("rename %s -> %s: %w", dst, rec.Path, err)
	}
	return rec, nil
}

// Restore removes whatever occupies the destination, renames the backup
// back and reapplies the captured timestamps. Any failure is a
// *RollbackError. Calling Restore again returns ErrAlreadyRestored.
func (r *BackupRecord) Restore() error {
	if r.restored {
		return ErrAlreadyRestored
	}
	if r.discarded {
		return ErrAlreadyDiscarded
	}

	if _, err := os.Lstat(r.Path); err != nil {
		return &RollbackError{Dst: r.Dst, BackupPath: r.Path, Err: fmt.Errorf("backup missing: %w", err)}
	}

	if err := os.Remove(r.Dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &RollbackError{Dst: r.Dst, BackupPath: r.Path, Err: fmt.Errorf("remove partial: %w", err)}
	}
	if err := os.Rename(r.Path, r.Dst); err != nil {
		return &RollbackError{Dst: r.Dst, BackupPath: r.Path, Err: err}
	}
	r.restored = true

	if err := platform.WriteTimes(r.Dst, r.Times); err != nil {
		// Content is back in place; only the timestamps are wrong.
		return &RollbackError{Dst: r.Dst, BackupPath: r.Dst, Err: err}
	}
	return nil
}

// Discard deletes the backup after a verified copy. A failure leaves a
// stale backup behind and is reported to the caller as a warning.
func (r *BackupRecord) Discard() error {
	if r.restored {
		return ErrAlreadyRestored
	}
	if r.discarded {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove backup %s: %w", r.Path, err)
	}
	r.discarded = true
	return nil
}
