package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/stats"
	"github.com/bamsammich/ferry/internal/units"
)

// Defaults for Config. New replaces zero sizes and intervals with these;
// a zero SafetyMargin or BWLimit is kept as given.
const (
	DefaultStrategyThreshold = 128 << 20 // 128 MiB
	DefaultChunkSize         = 4 << 20   // 4 MiB
	DefaultWindowSize        = 64 << 20  // 64 MiB
	DefaultMaxFileSize       = 2 << 40   // 2 TiB
	DefaultSafetyMargin      = 64 << 20  // 64 MiB
	DefaultProgressInterval  = 50 * time.Millisecond
)

// Config holds everything the engine needs that is not part of a single
// request. It is copied into the Engine and never mutated.
type Config struct {
	Logger *slog.Logger
	Events chan<- event.Event
	Stats  stats.Writer

	StrategyThreshold int64
	ChunkSize         int
	WindowSize        int64
	MaxFileSize       int64
	SafetyMargin      int64
	BWLimit           int64 // bytes/sec for the Staged path, 0 = unlimited
	ProgressInterval  time.Duration

	Hash                  HashAlgorithm
	DisableVerifyFallback bool
	LongPaths             bool
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		StrategyThreshold: DefaultStrategyThreshold,
		ChunkSize:         DefaultChunkSize,
		WindowSize:        DefaultWindowSize,
		MaxFileSize:       DefaultMaxFileSize,
		SafetyMargin:      DefaultSafetyMargin,
		ProgressInterval:  DefaultProgressInterval,
		Hash:              HashBLAKE3,
	}
}

// CopyRequest names one file copy. Progress and VerifyProgress are
// optional and receive throttled updates.
type CopyRequest struct {
	Progress       ProgressFunc
	VerifyProgress ProgressFunc
	Src            string
	Dst            string
	Overwrite      bool
}

// Engine copies single files with backup, rollback and verification.
// It is safe for concurrent use on distinct destinations.
type Engine struct {
	log          *slog.Logger
	stats        stats.Writer
	networkFS    func(path string) (bool, error)
	freeSpace    func(path string) (int64, error)
	verifyHash   func(ctx context.Context, dst, expected string, alg HashAlgorithm, chunkSize int, progress func(int64)) (bool, error)
	afterCopy    func(dst string) // test seam: runs between copy and timestamps
	cfg          Config
	hashAlg      HashAlgorithm
	hashFellBack bool
}

// New validates cfg, fills defaults and negotiates the hash algorithm.
func New(cfg Config) (*Engine, error) {
	def := DefaultConfig()
	if cfg.StrategyThreshold <= 0 {
		cfg.StrategyThreshold = def.StrategyThreshold
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.SafetyMargin < 0 {
		return nil, fmt.Errorf("negative safety margin %d", cfg.SafetyMargin)
	}
	if cfg.BWLimit < 0 {
		return nil, fmt.Errorf("negative bandwidth limit %d", cfg.BWLimit)
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = def.ProgressInterval
	}

	alg, fellBack, err := negotiateHash(cfg.Hash)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:          cfg,
		log:          cfg.Logger,
		stats:        cfg.Stats,
		hashAlg:      alg,
		hashFellBack: fellBack,
		networkFS:    platform.IsNetworkFS,
		freeSpace:    platform.FreeSpace,
		verifyHash:   VerifyHash,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.stats == nil {
		e.stats = stats.NewCollector()
	}
	if fellBack {
		e.log.Warn("hash algorithm unavailable, using fallback", "wanted", cfg.Hash, "using", alg)
	}
	return e, nil
}

// HashAlgorithm returns the algorithm negotiated at construction.
func (e *Engine) HashAlgorithm() HashAlgorithm { return e.hashAlg }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// call is the per-invocation state of CopyFile. Nothing in it outlives
// the call.
type call struct {
	e              *Engine
	backup         *BackupRecord
	progress       *throttle
	verifyProgress *throttle
	req            CopyRequest
	policy         VerificationPolicy
	src            string
	dst            string
	hash           string
	warnings       []string
	srcTimes       platform.Times
	timings        Timings
	size           int64
	bytes          int64
	strategy       Strategy
	method         platform.CopyMethod
	verifyMethod   VerifyMethod
	created        bool
	verified       bool
}

// CopyFile copies req.Src to req.Dst. On return the destination holds
// either a complete (and, per policy, verified) copy or exactly what it
// held before the call. Cancelling ctx stops the copy at the next chunk
// or window boundary and rolls back.
func (e *Engine) CopyFile(ctx context.Context, req CopyRequest, policy VerificationPolicy) Outcome {
	start := time.Now()
	c := &call{e: e, req: req, policy: policy, src: req.Src, dst: req.Dst}

	cerr := c.run(ctx)
	if cerr != nil && (c.created || c.backup != nil) {
		cerr = c.rollback(cerr)
	}
	c.timings.Total = time.Since(start)
	return c.outcome(cerr)
}

func (c *call) run(ctx context.Context) *CopyError {
	e := c.e
	if cerr := c.validate(); cerr != nil {
		return cerr
	}

	c.strategy = e.DetermineStrategy(c.src, c.dst, c.size)
	c.progress = newThrottle(c.progressSink(event.FileProgress, c.req.Progress), c.size, e.cfg.ProgressInterval)
	c.verifyProgress = newThrottle(c.progressSink(event.VerifyProgress, c.req.VerifyProgress), c.size, e.cfg.ProgressInterval)
	e.log.Debug("copy starting", "src", c.src, "dst", c.dst, "size", c.size, "strategy", c.strategy)
	e.emit(event.Event{Type: event.FileStarted, Path: c.dst, Size: c.size, Detail: c.strategy.String()})

	times, err := platform.ReadTimes(c.src)
	if err != nil {
		return newCopyError(KindCopyIO, err, "read source timestamps")
	}
	c.srcTimes = times
	c.checkSparse()

	if cerr := c.parkDestination(); cerr != nil {
		return cerr
	}
	if cerr := c.checkSpace(); cerr != nil {
		return cerr
	}
	if cancelled(ctx) {
		return c.cancelledError(ctx.Err())
	}

	copyStart := time.Now()
	var cerr *CopyError
	if c.strategy == Staged {
		cerr = c.copyStaged(ctx)
	} else {
		cerr = c.copyDirect(ctx)
	}
	c.progress.flush()
	c.timings.Copy = time.Since(copyStart)
	if cerr != nil {
		return cerr
	}
	if e.afterCopy != nil {
		e.afterCopy(c.dst)
	}

	if err := platform.WriteTimes(c.dst, c.srcTimes); err != nil {
		return newCopyError(KindTimestampWrite, err, "apply source timestamps to %s", c.dst)
	}

	if c.policy.ShouldVerify(c.size) {
		verifyStart := time.Now()
		cerr = c.verify(ctx)
		c.verifyProgress.flush()
		c.timings.Verify = time.Since(verifyStart)
		if cerr != nil {
			return cerr
		}
	}

	c.commit()
	return nil
}

func (c *call) validate() *CopyError {
	e := c.e
	src, err := validatePath(c.src, e.cfg.LongPaths)
	if err != nil {
		return newCopyError(KindValidation, err, "source path %q", c.src)
	}
	dst, err := validatePath(c.dst, e.cfg.LongPaths)
	if err != nil {
		return newCopyError(KindValidation, err, "destination path %q", c.dst)
	}
	c.src, c.dst = src, dst

	srcInfo, err := os.Stat(src)
	if err != nil {
		return newCopyError(KindValidation, err, "source %s", src)
	}
	if !srcInfo.Mode().IsRegular() {
		return newCopyError(KindValidation, nil, "source %s is not a regular file", src)
	}
	if srcInfo.Size() > e.cfg.MaxFileSize {
		return newCopyError(KindValidation, nil, "source %s is %s, above the %s limit",
			src, units.FormatBytes(srcInfo.Size()), units.FormatBytes(e.cfg.MaxFileSize))
	}
	c.size = srcInfo.Size()

	if dirInfo, err := os.Stat(filepath.Dir(dst)); err != nil || !dirInfo.IsDir() {
		return newCopyError(KindValidation, err, "destination directory %s does not exist", filepath.Dir(dst))
	}
	if dstInfo, err := os.Lstat(dst); err == nil {
		if dstInfo.IsDir() {
			return newCopyError(KindValidation, nil, "destination %s is a directory", dst)
		}
		if os.SameFile(srcInfo, dstInfo) {
			return newCopyError(KindValidation, nil, "source and destination are the same file")
		}
	}
	return nil
}

func (c *call) checkSparse() {
	f, err := os.Open(c.src)
	if err != nil {
		return
	}
	defer f.Close()
	if sparse, err := platform.IsSparse(f, c.size); err == nil && sparse {
		msg := "source is sparse; holes are written out in full at the destination"
		c.warn(msg)
		c.e.emit(event.Event{Type: event.SparseWarning, Path: c.src, Size: c.size})
	}
}

// parkDestination moves an existing destination aside, or refuses when
// overwriting was not requested.
func (c *call) parkDestination() *CopyError {
	if _, err := os.Lstat(c.dst); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if !c.req.Overwrite {
		return newCopyError(KindAlreadyExists, os.ErrExist, "destination %s exists", c.dst).
			withHint("request an overwrite to replace it")
	}

	start := time.Now()
	rec, err := CreateBackup(c.dst)
	c.timings.Backup = time.Since(start)
	if err != nil {
		return newCopyError(KindBackupCreation, err, "park existing destination").
			withHint("check that the destination is not locked or read-only")
	}
	c.backup = rec
	if rec != nil {
		c.e.log.Debug("destination parked", "dst", c.dst, "backup", rec.Path)
		c.e.emit(event.Event{Type: event.BackupCreated, Path: rec.Path, Size: rec.Size})
	}
	return nil
}

func (c *call) checkSpace() *CopyError {
	required := c.size + c.e.cfg.SafetyMargin
	if c.backup != nil {
		required += c.backup.Size
	}
	free, err := c.e.freeSpace(filepath.Dir(c.dst))
	if err != nil {
		c.e.log.Debug("free space check skipped", "dst", c.dst, "error", err)
		return nil
	}
	if free < required {
		return newCopyError(KindInsufficientSpace, nil, "need %s at %s, %s available",
			units.FormatBytes(required), filepath.Dir(c.dst), units.FormatBytes(free)).
			withHint("free space on the destination volume")
	}
	return nil
}

// createDst creates the destination exclusively; the slot was emptied by
// parkDestination.
func (c *call) createDst() (*os.File, *CopyError) {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(c.src); err == nil {
		perm = info.Mode().Perm()
	}
	fd, err := os.OpenFile(c.dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, newCopyError(KindCopyIO, err, "create %s", c.dst)
	}
	c.created = true
	return fd, nil
}

// finishDst flushes and closes the destination.
func (c *call) finishDst(fd *os.File) *CopyError {
	if err := fd.Sync(); err != nil {
		fd.Close()
		return newCopyError(KindCopyIO, err, "sync %s", c.dst)
	}
	if err := fd.Close(); err != nil {
		return newCopyError(KindCopyIO, err, "close %s", c.dst)
	}
	return nil
}

// ioError classifies a copy/verify error as cancellation or I/O failure.
func (c *call) ioError(ctx context.Context, err error, format string, args ...any) *CopyError {
	if errors.Is(err, platform.ErrAborted) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) || cancelled(ctx) {
		return c.cancelledError(err)
	}
	return newCopyError(KindCopyIO, err, format, args...)
}

func (c *call) cancelledError(err error) *CopyError {
	return newCopyError(KindCancelled, err, "copy of %s cancelled", c.src)
}

func (c *call) verify(ctx context.Context) *CopyError {
	c.e.emit(event.Event{Type: event.VerifyStarted, Path: c.dst, Size: c.size})
	if c.size == 0 {
		info, err := os.Stat(c.dst)
		if err != nil || info.Size() != 0 {
			return c.mismatch()
		}
		c.verifyMethod = VerifyTrivial
		c.verified = true
		return nil
	}

	var cerr *CopyError
	if c.strategy == Staged {
		cerr = c.verifyStaged(ctx)
	} else {
		cerr = c.verifyDirect(ctx)
	}
	if cerr != nil {
		return cerr
	}
	c.verified = true
	c.e.stats.AddFilesVerified(1)
	c.e.emit(event.Event{Type: event.VerifyOK, Path: c.dst, Size: c.size, Detail: c.verifyMethod.String()})
	return nil
}

func (c *call) mismatch() *CopyError {
	c.e.stats.AddFilesVerifyFailed(1)
	c.e.emit(event.Event{Type: event.VerifyFailed, Path: c.dst, Size: c.size})
	return newCopyError(KindVerificationMismatch, nil, "%s does not match %s", c.dst, c.src).
		withHint("retry the copy; repeated mismatches point at failing storage")
}

// commit discards the backup of a successful copy.
func (c *call) commit() {
	if c.backup == nil {
		return
	}
	start := time.Now()
	if err := c.backup.Discard(); err != nil {
		c.warn(fmt.Sprintf("stale backup left at %s: %v", c.backup.Path, err))
		c.e.stats.AddStaleBackups(1)
		c.e.log.Warn("could not remove backup", "backup", c.backup.Path, "error", err)
	} else {
		c.e.emit(event.Event{Type: event.BackupDiscarded, Path: c.backup.Path})
	}
	c.timings.Cleanup = time.Since(start)
}

// rollback restores the pre-call state after cause. It ignores
// cancellation and runs to completion. A failed restore replaces cause
// with a critical error.
func (c *call) rollback(cause *CopyError) *CopyError {
	start := time.Now()
	defer func() { c.timings.Cleanup = time.Since(start) }()

	c.e.stats.AddRollbacks(1)
	if c.backup == nil {
		if err := os.Remove(c.dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.warn(fmt.Sprintf("partial destination left at %s: %v", c.dst, err))
			c.e.log.Warn("could not remove partial destination", "dst", c.dst, "error", err)
		}
		return cause
	}

	err := c.backup.Restore()
	if err == nil {
		c.e.emit(event.Event{Type: event.BackupRestored, Path: c.dst})
		return cause
	}

	var rerr *RollbackError
	if !errors.As(err, &rerr) {
		return cause
	}
	c.e.stats.AddCriticalFailures(1)
	c.e.log.Error("ROLLBACK FAILED: original destination must be recovered manually",
		"dst", c.dst, "backup", rerr.BackupPath, "cause", cause, "error", err)
	c.e.emit(event.Event{Type: event.RollbackFailed, Path: rerr.BackupPath, Error: err})
	return &CopyError{
		Kind:       KindCriticalRollback,
		Err:        err,
		Detail:     fmt.Sprintf("rollback after %s failed", cause.Kind),
		Hint:       fmt.Sprintf("the original file is preserved at %s; move it back to %s", rerr.BackupPath, c.dst),
		BackupPath: rerr.BackupPath,
	}
}

// progressSink forwards progress to the request callback and, when an
// event channel is configured, as events of type typ.
func (c *call) progressSink(typ event.Type, user ProgressFunc) ProgressFunc {
	if c.e.cfg.Events == nil {
		return user
	}
	return func(done, total int64) {
		c.e.emit(event.Event{Type: typ, Path: c.dst, Size: done, Total: total})
		if user != nil {
			user(done, total)
		}
	}
}

func (c *call) warn(msg string) {
	c.warnings = append(c.warnings, msg)
}

func (c *call) outcome(cerr *CopyError) Outcome {
	e := c.e
	o := Outcome{
		Err:          cerr,
		Src:          c.src,
		Dst:          c.dst,
		Warnings:     c.warnings,
		Timings:      c.timings,
		BytesCopied:  c.bytes,
		Strategy:     c.strategy,
		Method:       c.method,
		VerifyMethod: c.verifyMethod,
		Verified:     c.verified && cerr == nil,
		BackupTaken:  c.backup != nil,
	}
	if c.strategy == Staged && c.hash != "" {
		o.Hash = c.hash
		o.HashAlgorithm = e.hashAlg
		o.HashFallback = e.hashFellBack
	}

	switch {
	case cerr == nil:
		o.Status = StatusOK
		e.stats.AddFilesCopied(1)
		e.stats.AddBytesCopied(c.bytes)
		e.emit(event.Event{Type: event.FileCompleted, Path: c.dst, Size: c.bytes})
	case cerr.Kind == KindCancelled:
		o.Status = StatusCancelled
		e.stats.AddFilesCancelled(1)
		e.emit(event.Event{Type: event.FileCancelled, Path: c.dst, Size: c.bytes})
	default:
		o.Status = StatusFailed
		e.stats.AddFilesFailed(1)
		e.emit(event.Event{Type: event.FileFailed, Path: c.dst, Size: c.bytes, Error: cerr})
	}
	return o
}

func (e *Engine) emit(ev event.Event) {
	if e.cfg.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case e.cfg.Events <- ev:
	default:
	}
}
