package engine

import (
	"context"
	"time"
)

// ProgressFunc receives (bytesDone, bytesTotal). It runs on the copying
// goroutine and may block.
type ProgressFunc func(done, total int64)

// throttle rate-limits calls into a ProgressFunc. Updates arriving inside
// the interval replace the pending value; flush delivers the last one.
type throttle struct {
	sink     ProgressFunc
	now      func() time.Time
	last     time.Time
	interval time.Duration
	total    int64
	pending  int64
	dirty    bool
}

func newThrottle(sink ProgressFunc, total int64, interval time.Duration) *throttle {
	return &throttle{sink: sink, total: total, interval: interval, now: time.Now}
}

func (t *throttle) update(done int64) {
	if t == nil || t.sink == nil {
		return
	}
	t.pending = done
	t.dirty = true

	now := t.now()
	if t.last.IsZero() || now.Sub(t.last) >= t.interval {
		t.emit(now)
	}
}

// flush delivers a value that was held back by the interval.
func (t *throttle) flush() {
	if t == nil || t.sink == nil || !t.dirty {
		return
	}
	t.emit(t.now())
}

func (t *throttle) emit(now time.Time) {
	t.last = now
	t.dirty = false
	t.sink(t.pending, t.total)
}

// cancelled is the cooperative cancellation check used at every chunk and
// window boundary.
func cancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}
