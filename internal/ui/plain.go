package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/ferry/internal/event"
)

const plainProgressInterval = 5 * time.Second

// plainPresenter outputs one line per finished file to stdout and
// periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w        io.Writer
	errW     io.Writer
	phase    string
	interval time.Duration
	done     int64
	total    int64
	verbose  bool
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.FileStarted:
		p.phase, p.done, p.total = "copying", 0, ev.Size
		if p.verbose {
			fmt.Fprintf(p.errW, "start: %s  %s  %s\n", ev.Path, FormatBytes(ev.Size), ev.Detail)
		}
	case event.FileProgress, event.VerifyProgress:
		p.done = ev.Size
		if ev.Total > 0 {
			p.total = ev.Total
		}
	case event.VerifyStarted:
		p.phase, p.done = "verifying", 0
		if p.verbose {
			fmt.Fprintln(p.errW, "verifying...")
		}
	case event.VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Path)
	case event.SparseWarning:
		fmt.Fprintf(p.errW, "warning: %s is sparse; holes are written in full\n", ev.Path)
	case event.BackupRestored:
		fmt.Fprintf(p.w, "restored: %s\n", ev.Path)
	case event.RollbackFailed:
		fmt.Fprintf(p.w, "ROLLBACK FAILED: original kept at %s\n", ev.Path)
	case event.FileCompleted:
		p.phase = ""
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, FormatBytes(ev.Size))
	case event.FileFailed:
		p.phase = ""
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, errMsg)
	case event.FileCancelled:
		p.phase = ""
		fmt.Fprintf(p.w, "%s  cancelled\n", ev.Path)
	case event.BackupCreated, event.BackupDiscarded, event.VerifyOK:
		// silent in plain mode
	}
}

func (p *plainPresenter) printProgress() {
	if p.phase == "" {
		return
	}
	fmt.Fprintf(p.errW, "progress: %s %.0f%% %s/%s\n",
		p.phase,
		Percent(p.done, p.total)*100,
		FormatBytes(p.done), FormatBytes(p.total),
	)
}
