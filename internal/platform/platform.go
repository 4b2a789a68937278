package platform

import (
	"errors"
	"os"
	"time"
)

// ErrAborted is returned by CopyFile when the Cancelled hook reports true.
var ErrAborted = errors.New("copy aborted")

// ErrUnsupported is returned by probes the current platform cannot answer.
var ErrUnsupported = errors.New("not supported on this platform")

// defaultStep is how many bytes a kernel copy call moves between hook checks.
const defaultStep = 8 << 20 // 8 MiB

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
	Clonefile                // macOS clonefile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	case Clonefile:
		return "clonefile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyFileParams describes a whole-file copy into an already created
// destination. Progress and Cancelled are optional; Cancelled is consulted
// before every kernel step and a true result stops the copy with ErrAborted.
type CopyFileParams struct {
	DstFd     *os.File
	Progress  func(done int64)
	Cancelled func() bool
	SrcPath   string
	SrcSize   int64
	Step      int64
}

func (p CopyFileParams) step() int64 {
	if p.Step > 0 {
		return p.Step
	}
	return defaultStep
}

func (p CopyFileParams) aborted() bool {
	return p.Cancelled != nil && p.Cancelled()
}

func (p CopyFileParams) report(done int64) {
	if p.Progress != nil {
		p.Progress(done)
	}
}

// Times holds the timestamps the engine preserves. Created is zero when the
// filesystem does not record a birth time.
type Times struct {
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

// PageAlign rounds n up to a multiple of the system page size.
func PageAlign(n int64) int64 {
	page := int64(os.Getpagesize())
	if n <= 0 {
		return page
	}
	return (n + page - 1) / page * page
}
