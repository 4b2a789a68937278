package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newHUD(buf *bytes.Buffer, verbose bool) (*hudPresenter, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return &hudPresenter{w: buf, width: 120, verbose: verbose, now: clk.now}, clk
}

func TestHUDDrawsProgress(t *testing.T) {
	var buf bytes.Buffer
	p, clk := newHUD(&buf, false)

	p.handleEvent(event.Event{Type: event.FileStarted, Path: "/dst/file.bin", Size: 1000, Detail: "direct"})
	assert.Contains(t, buf.String(), "/dst/file.bin")
	assert.Contains(t, buf.String(), "direct")

	clk.t = clk.t.Add(time.Second)
	p.handleEvent(event.Event{Type: event.FileProgress, Size: 500, Total: 1000})
	assert.Contains(t, buf.String(), "copying")
	assert.Contains(t, buf.String(), " 50%")
	assert.True(t, p.drawn)

	p.handleEvent(event.Event{Type: event.FileCompleted, Size: 1000})
	assert.False(t, p.drawn)
	assert.True(t, strings.HasSuffix(buf.String(), ansiClearLine))
}

func TestHUDThrottlesRedraws(t *testing.T) {
	var buf bytes.Buffer
	p, clk := newHUD(&buf, false)
	p.handleEvent(event.Event{Type: event.FileStarted, Size: 1000})

	p.handleEvent(event.Event{Type: event.FileProgress, Size: 100, Total: 1000})
	n := buf.Len()

	clk.t = clk.t.Add(10 * time.Millisecond)
	p.handleEvent(event.Event{Type: event.FileProgress, Size: 200, Total: 1000})
	assert.Equal(t, n, buf.Len(), "redraw inside the minimum interval")

	clk.t = clk.t.Add(10 * time.Millisecond)
	p.handleEvent(event.Event{Type: event.FileProgress, Size: 1000, Total: 1000})
	assert.Greater(t, buf.Len(), n, "completion always draws")
}

func TestHUDVerifyPhase(t *testing.T) {
	var buf bytes.Buffer
	p, clk := newHUD(&buf, true)
	p.handleEvent(event.Event{Type: event.FileStarted, Size: 10})
	p.handleEvent(event.Event{Type: event.VerifyStarted})
	clk.t = clk.t.Add(time.Second)
	p.handleEvent(event.Event{Type: event.VerifyProgress, Size: 10, Total: 10})
	assert.Contains(t, buf.String(), "verifying")

	p.handleEvent(event.Event{Type: event.VerifyOK, Detail: "window"})
	assert.Contains(t, buf.String(), "verified (window)")
}

func TestHUDTruncatesToWidth(t *testing.T) {
	var buf bytes.Buffer
	p, clk := newHUD(&buf, false)
	p.width = 30
	p.handleEvent(event.Event{Type: event.FileStarted, Size: 1 << 30})
	buf.Reset()

	clk.t = clk.t.Add(time.Second)
	p.handleEvent(event.Event{Type: event.FileProgress, Size: 1 << 29, Total: 1 << 30})
	line := strings.TrimPrefix(buf.String(), ansiClearLine)
	assert.LessOrEqual(t, len([]rune(line)), 29)
}

func TestHUDRunClearsLine(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newHUD(&buf, false)

	events := make(chan event.Event, 4)
	events <- event.Event{Type: event.FileStarted, Size: 100}
	events <- event.Event{Type: event.FileProgress, Size: 50, Total: 100}
	events <- event.Event{Type: event.RollbackFailed, Path: "/d/.x.ferry-bak"}
	close(events)

	require.NoError(t, p.Run(events))
	assert.Contains(t, buf.String(), "ROLLBACK FAILED")
	assert.Contains(t, buf.String(), "/d/.x.ferry-bak")
	assert.False(t, p.drawn)
}
