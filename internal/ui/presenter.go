package ui

import (
	"io"

	"github.com/bamsammich/ferry/internal/event"
)

// Presenter consumes engine events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Width     int
	IsTTY     bool
	Quiet     bool
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return quietPresenter{}
	}
	if !cfg.IsTTY {
		return &plainPresenter{
			w:        cfg.Writer,
			errW:     cfg.ErrWriter,
			verbose:  cfg.Verbose,
			interval: plainProgressInterval,
		}
	}
	return &hudPresenter{
		w:       cfg.ErrWriter, // HUD renders to stderr (the TTY)
		width:   cfg.Width,
		verbose: cfg.Verbose,
		now:     timeNow,
	}
}

// quietPresenter consumes events but produces no output.
type quietPresenter struct{}

func (quietPresenter) Run(events <-chan event.Event) error {
	for range events {
	}
	return nil
}
