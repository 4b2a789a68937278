package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/bamsammich/ferry/internal/platform"
)

// Status is the terminal state of a CopyFile call.
type Status int

const (
	StatusOK Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrorKind classifies a failed or cancelled copy.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAlreadyExists
	KindInsufficientSpace
	KindBackupCreation
	KindCopyIO
	KindTimestampWrite
	KindVerificationMismatch
	KindVerificationUnavailable
	KindCancelled
	KindCriticalRollback
)

var kindNames = [...]string{
	KindValidation:              "ValidationError",
	KindAlreadyExists:           "AlreadyExists",
	KindInsufficientSpace:       "InsufficientSpace",
	KindBackupCreation:          "BackupCreationFailed",
	KindCopyIO:                  "CopyIoFailed",
	KindTimestampWrite:          "TimestampWriteFailed",
	KindVerificationMismatch:    "VerificationMismatch",
	KindVerificationUnavailable: "VerificationUnavailable",
	KindCancelled:               "Cancelled",
	KindCriticalRollback:        "CriticalRollbackFailure",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// CopyError is the structured failure attached to an Outcome.
type CopyError struct {
	Err        error
	Detail     string
	Hint       string
	BackupPath string // set only for KindCriticalRollback
	Kind       ErrorKind
}

func (e *CopyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *CopyError) Unwrap() error { return e.Err }

func newCopyError(kind ErrorKind, err error, format string, args ...any) *CopyError {
	return &CopyError{Kind: kind, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func (e *CopyError) withHint(hint string) *CopyError {
	e.Hint = hint
	return e
}

// KindOf returns the ErrorKind carried by err, or 0 if err is not a CopyError.
func KindOf(err error) ErrorKind {
	var ce *CopyError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// VerifyMethod records how content was verified.
type VerifyMethod int

const (
	VerifySkipped VerifyMethod = iota
	VerifyWindowCompare
	VerifyHashCompare
	VerifyByteCompare // hash fallback
	VerifyTrivial     // zero-length source
)

func (m VerifyMethod) String() string {
	switch m {
	case VerifySkipped:
		return "skipped"
	case VerifyWindowCompare:
		return "window"
	case VerifyHashCompare:
		return "hash"
	case VerifyByteCompare:
		return "bytes"
	case VerifyTrivial:
		return "trivial"
	default:
		return "unknown"
	}
}

// Timings is the elapsed-time breakdown of one call.
type Timings struct {
	Backup  time.Duration
	Copy    time.Duration
	Verify  time.Duration
	Cleanup time.Duration
	Total   time.Duration
}

// Outcome is the immutable result of CopyFile.
type Outcome struct {
	Err           *CopyError
	Src           string
	Dst           string
	Hash          string // hex digest, Staged only
	Warnings      []string
	Timings       Timings
	BytesCopied   int64
	Status        Status
	Strategy      Strategy
	Method        platform.CopyMethod // Direct only
	HashAlgorithm HashAlgorithm
	VerifyMethod  VerifyMethod
	Verified      bool
	HashFallback  bool
	BackupTaken   bool
}

// OK reports whether the copy completed.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Critical reports whether rollback failed and manual recovery is needed.
func (o Outcome) Critical() bool {
	return o.Err != nil && o.Err.Kind == KindCriticalRollback
}
