package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/stats"
	"github.com/bamsammich/ferry/internal/ui"
)

var version = "dev"

// Process exit codes.
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitCritical  = 3
	exitCancelled = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(&options{})
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ferry [flags] <source> <destination>",
		Short: "Copy one file with backup, rollback and verification",
		Long: `ferry copies a single file. An existing destination is parked beside
itself while the copy runs and is put back on any failure or interrupt,
so the destination is either the complete new file or the old one.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), "ferry "+version)
				return nil
			}
			return runCopy(cmd, args[0], args[1], opts)
		},
	}

	opts.registerFlags(rootCmd)
	rootCmd.AddCommand(newStrategyCmd(opts))
	rootCmd.AddCommand(docsCmd)
	return rootCmd
}

func runCopy(cmd *cobra.Command, src, dst string, opts *options) error {
	logger, closeLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	engineCfg, policy, err := opts.resolve(cmd, logger)
	if err != nil {
		return err
	}

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)
	engineCfg.Events = events
	engineCfg.Stats = collector

	eng, err := engine.New(engineCfg)
	if err != nil {
		return err
	}

	// When --log is set, tee events through a logging goroutine that
	// writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		presenterEvents = teeEvents(events, logger)
	}

	isTTY := ui.IsTTY(os.Stderr.Fd())
	presenter := ui.NewPresenter(ui.Config{
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Width:     ui.TermWidth(os.Stderr.Fd()),
		IsTTY:     isTTY && !opts.noProgress,
		Quiet:     opts.quiet,
		Verbose:   opts.verbose,
	})

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	logger.Debug("starting copy", "src", src, "dst", dst, "policy", policy, "hash", eng.HashAlgorithm())
	out := eng.CopyFile(ctx, engine.CopyRequest{Src: src, Dst: dst, Overwrite: opts.overwrite}, policy)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}

	if !opts.quiet || !out.OK() {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.OutcomeSummary(out))
	}
	logger.Debug("copy finished",
		"status", out.Status,
		"strategy", out.Strategy,
		"verify", out.VerifyMethod,
		"stats", collector.Snapshot().String(),
	)

	if code := exitCode(out); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

// teeEvents logs every event and forwards it on the returned channel,
// which is closed once events is drained.
func teeEvents(events <-chan event.Event, logger *slog.Logger) <-chan event.Event {
	teed := make(chan event.Event, cap(events))
	go func() {
		for ev := range events {
			if ev.Type != event.FileProgress && ev.Type != event.VerifyProgress {
				attrs := []slog.Attr{
					slog.String("type", ev.Type.String()),
					slog.String("path", ev.Path),
					slog.Int64("size", ev.Size),
				}
				if ev.Detail != "" {
					attrs = append(attrs, slog.String("detail", ev.Detail))
				}
				if ev.Error != nil {
					attrs = append(attrs, slog.String("error", ev.Error.Error()))
				}
				logger.LogAttrs(context.Background(), slog.LevelDebug, "ferry.event", attrs...)
			}
			teed <- ev
		}
		close(teed)
	}()
	return teed
}

// exitCode maps an outcome to the process exit status.
func exitCode(out engine.Outcome) int {
	switch {
	case out.OK():
		return exitOK
	case out.Critical():
		return exitCritical
	case out.Status == engine.StatusCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}

// setupLogging builds the process logger: text on stderr, fanned out to a
// JSON file when --log is given.
func setupLogging(opts *options) (*slog.Logger, func(), error) {
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	closeLog := func() {}
	var logHandler slog.Handler = textHandler
	if opts.logFile != "" {
		lf, err := os.Create(opts.logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closeLog = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
