package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/ferry/internal/event"
)

// ANSI escape sequences.
const (
	ansiDim       = "\033[2m"
	ansiBold      = "\033[1m"
	ansiReset     = "\033[0m"
	ansiClearLine = "\r\033[K"
)

const (
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

var timeNow = time.Now

// hudPresenter redraws a single status line in place and prints notable
// events above it.
type hudPresenter struct {
	w          io.Writer
	now        func() time.Time
	phaseStart time.Time
	lastDraw   time.Time
	phase      string
	width      int
	done       int64
	total      int64
	verbose    bool
	drawn      bool
}

func (p *hudPresenter) Run(events <-chan event.Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	p.clearLine()
	return nil
}

func (p *hudPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.FileStarted:
		p.total = ev.Size
		p.printLine(fmt.Sprintf("%s→ %s  %s  %s%s", ansiDim, ev.Path, FormatBytes(ev.Size), ev.Detail, ansiReset))
		p.startPhase("copying")

	case event.FileProgress, event.VerifyProgress:
		p.done = ev.Size
		if ev.Total > 0 {
			p.total = ev.Total
		}
		p.maybeDraw()

	case event.VerifyStarted:
		p.startPhase("verifying")

	case event.VerifyOK:
		if p.verbose {
			p.printLine(fmt.Sprintf("%s✓  verified (%s)%s", ansiDim, ev.Detail, ansiReset))
		}

	case event.VerifyFailed:
		p.printLine(fmt.Sprintf("✗  %s  CONTENT MISMATCH", ev.Path))

	case event.BackupCreated:
		if p.verbose {
			p.printLine(fmt.Sprintf("%sparked existing destination as %s%s", ansiDim, ev.Path, ansiReset))
		}

	case event.BackupRestored:
		p.printLine(fmt.Sprintf("↺  restored original %s", ev.Path))

	case event.SparseWarning:
		p.printLine("!  source is sparse; holes are written in full")

	case event.RollbackFailed:
		p.printLine(fmt.Sprintf("%sROLLBACK FAILED%s  original kept at %s", ansiBold, ansiReset, ev.Path))

	case event.FileCompleted, event.FileFailed, event.FileCancelled:
		p.clearLine()
		p.phase = ""
	}
}

func (p *hudPresenter) startPhase(name string) {
	p.phase = name
	p.done = 0
	p.phaseStart = p.now()
	p.lastDraw = time.Time{}
}

func (p *hudPresenter) maybeDraw() {
	now := p.now()
	if !p.lastDraw.IsZero() && now.Sub(p.lastDraw) < hudMinInterval && p.done < p.total {
		return
	}
	p.lastDraw = now
	p.draw(now)
}

func (p *hudPresenter) draw(now time.Time) {
	if p.phase == "" {
		return
	}
	pct := Percent(p.done, p.total)

	var rate float64
	if elapsed := now.Sub(p.phaseStart).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}
	var eta time.Duration
	if rate > 0 && p.total > p.done {
		eta = time.Duration(float64(p.total-p.done)/rate) * time.Second
	}

	line := fmt.Sprintf("  %-9s %s %3.0f%%  %s / %s  %s  eta %s",
		p.phase,
		ProgressBar(pct, progressBarWidth),
		pct*100,
		FormatBytes(p.done), FormatBytes(p.total),
		FormatRate(rate),
		FormatETA(eta),
	)
	if p.width > 1 {
		if r := []rune(line); len(r) > p.width-1 {
			line = string(r[:p.width-1])
		}
	}
	fmt.Fprint(p.w, ansiClearLine+line)
	p.drawn = true
}

func (p *hudPresenter) printLine(s string) {
	p.clearLine()
	fmt.Fprintln(p.w, s)
}

func (p *hudPresenter) clearLine() {
	if !p.drawn {
		return
	}
	fmt.Fprint(p.w, ansiClearLine)
	p.drawn = false
}
