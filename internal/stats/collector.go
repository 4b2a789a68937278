package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Writer is the write side of a Collector, as seen by the engine.
type Writer interface {
	AddFilesCopied(n int64)
	AddFilesFailed(n int64)
	AddFilesCancelled(n int64)
	AddBytesCopied(n int64)
	AddFilesVerified(n int64)
	AddFilesVerifyFailed(n int64)
	AddRollbacks(n int64)
	AddCriticalFailures(n int64)
	AddStaleBackups(n int64)
}

// Collector tracks copy statistics using lock-free atomic counters.
type Collector struct {
	startTime         time.Time
	filesCopied       atomic.Int64
	filesFailed       atomic.Int64
	filesCancelled    atomic.Int64
	bytesCopied       atomic.Int64
	filesVerified     atomic.Int64
	filesVerifyFailed atomic.Int64
	rollbacks         atomic.Int64
	criticalFailures  atomic.Int64
	staleBackups      atomic.Int64
}

var _ Writer = (*Collector)(nil)

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied       int64
	FilesFailed       int64
	FilesCancelled    int64
	BytesCopied       int64
	FilesVerified     int64
	FilesVerifyFailed int64
	Rollbacks         int64
	CriticalFailures  int64
	StaleBackups      int64
	Elapsed           time.Duration
}

func (c *Collector) AddFilesCopied(n int64)       { c.filesCopied.Add(n) }
func (c *Collector) AddFilesFailed(n int64)       { c.filesFailed.Add(n) }
func (c *Collector) AddFilesCancelled(n int64)    { c.filesCancelled.Add(n) }
func (c *Collector) AddBytesCopied(n int64)       { c.bytesCopied.Add(n) }
func (c *Collector) AddFilesVerified(n int64)     { c.filesVerified.Add(n) }
func (c *Collector) AddFilesVerifyFailed(n int64) { c.filesVerifyFailed.Add(n) }
func (c *Collector) AddRollbacks(n int64)         { c.rollbacks.Add(n) }
func (c *Collector) AddCriticalFailures(n int64)  { c.criticalFailures.Add(n) }
func (c *Collector) AddStaleBackups(n int64)      { c.staleBackups.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:       c.filesCopied.Load(),
		FilesFailed:       c.filesFailed.Load(),
		FilesCancelled:    c.filesCancelled.Load(),
		BytesCopied:       c.bytesCopied.Load(),
		FilesVerified:     c.filesVerified.Load(),
		FilesVerifyFailed: c.filesVerifyFailed.Load(),
		Rollbacks:         c.rollbacks.Load(),
		CriticalFailures:  c.criticalFailures.Load(),
		StaleBackups:      c.staleBackups.Load(),
		Elapsed:           c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d failed=%d cancelled=%d bytes=%d verified=%d mismatched=%d rollbacks=%d critical=%d stale_backups=%d",
		s.FilesCopied, s.FilesFailed, s.FilesCancelled, s.BytesCopied,
		s.FilesVerified, s.FilesVerifyFailed, s.Rollbacks, s.CriticalFailures, s.StaleBackups,
	)
}
