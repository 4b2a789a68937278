package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/ferry/internal/config"
	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/units"
)

// options holds raw flag values. Sizes stay strings until resolve so
// config file defaults can be merged in first.
type options struct {
	verify         string
	hash           string
	threshold      string
	chunkSize      string
	windowSize     string
	maxFileSize    string
	safetyMargin   string
	bwLimit        string
	logFile        string
	configFile     string
	progressHz     int
	verifyFallback bool
	longPaths      bool
	overwrite      bool
	verbose        bool
	quiet          bool
	noProgress     bool
	showVersion    bool
}

func (o *options) registerFlags(root *cobra.Command) {
	root.Flags().BoolVar(&o.showVersion, "version", false, "print version and exit")
	root.Flags().BoolVarP(&o.overwrite, "overwrite", "f", false, "replace an existing destination")
	root.Flags().StringVar(&o.verify, "verify", "all", "verification policy: all, none or lt:SIZE")
	root.Flags().BoolVar(&o.noProgress, "no-progress", false, "disable the progress line")
	o.registerTuningFlags(root.PersistentFlags())
}

// registerTuningFlags adds the flags shared with subcommands.
func (o *options) registerTuningFlags(pf *pflag.FlagSet) {
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&o.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.StringVar(&o.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&o.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ferry/config.toml)")
	pf.StringVar(&o.hash, "hash", "blake3", "hash for staged copies: blake3 or sha256")
	pf.StringVar(&o.threshold, "strategy-threshold", "128M", "files at or above SIZE use the staged strategy")
	pf.StringVar(&o.chunkSize, "chunk-size", "4M", "staged copy chunk size")
	pf.StringVar(&o.windowSize, "window-size", "64M", "verification window size")
	pf.StringVar(&o.maxFileSize, "max-file-size", "2T", "refuse sources larger than SIZE")
	pf.StringVar(&o.safetyMargin, "safety-margin", "64M", "free space to keep on the destination volume")
	pf.StringVar(&o.bwLimit, "bwlimit", "", "bandwidth limit for staged copies (e.g. 100M, 1G)")
	pf.BoolVar(&o.verifyFallback, "verify-fallback", true, "compare bytes when hash verification is unavailable")
	pf.BoolVar(&o.longPaths, "long-paths", false, "use extended-length paths on Windows")
	pf.IntVar(&o.progressHz, "progress-hz", 20, "maximum progress updates per second")
}

// loadConfig reads --config or the default config file. A broken default
// file is a warning; a broken explicit one is an error.
func (o *options) loadConfig(logger *slog.Logger) (config.Config, error) {
	if o.configFile != "" {
		cfg, err := config.LoadFile(o.configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config", "path", config.Path(), "error", err)
		return config.Config{}, nil
	}
	return cfg, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, o *options) {
	strs := []struct {
		dst  *string
		src  *string
		flag string
	}{
		{&o.verify, defaults.Verify, "verify"},
		{&o.hash, defaults.Hash, "hash"},
		{&o.threshold, defaults.StrategyThreshold, "strategy-threshold"},
		{&o.chunkSize, defaults.ChunkSize, "chunk-size"},
		{&o.windowSize, defaults.WindowSize, "window-size"},
		{&o.maxFileSize, defaults.MaxFileSize, "max-file-size"},
		{&o.safetyMargin, defaults.SafetyMargin, "safety-margin"},
		{&o.bwLimit, defaults.BWLimit, "bwlimit"},
	}
	flags := cmd.Flags()
	for _, s := range strs {
		if s.src != nil && !flagChanged(flags, s.flag) {
			*s.dst = *s.src
		}
	}
	if defaults.VerifyFallback != nil && !flagChanged(flags, "verify-fallback") {
		o.verifyFallback = *defaults.VerifyFallback
	}
	if defaults.LongPaths != nil && !flagChanged(flags, "long-paths") {
		o.longPaths = *defaults.LongPaths
	}
	if defaults.ProgressHz != nil && !flagChanged(flags, "progress-hz") {
		o.progressHz = *defaults.ProgressHz
	}
}

// flagChanged tolerates flags the command does not define (--verify on
// the strategy subcommand).
func flagChanged(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// resolve merges config defaults and parses every flag into an engine
// configuration and verification policy.
func (o *options) resolve(cmd *cobra.Command, logger *slog.Logger) (engine.Config, engine.VerificationPolicy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	file, err := o.loadConfig(logger)
	if err != nil {
		return engine.Config{}, engine.VerificationPolicy{}, err
	}
	applyConfigDefaults(cmd, file.Defaults, o)

	cfg := engine.DefaultConfig()
	cfg.Logger = logger
	cfg.DisableVerifyFallback = !o.verifyFallback
	cfg.LongPaths = o.longPaths

	if cfg.Hash, err = engine.ParseHashAlgorithm(o.hash); err != nil {
		return cfg, engine.VerificationPolicy{}, err
	}

	sizes := []struct {
		dst  *int64
		raw  string
		flag string
	}{
		{&cfg.StrategyThreshold, o.threshold, "strategy-threshold"},
		{&cfg.WindowSize, o.windowSize, "window-size"},
		{&cfg.MaxFileSize, o.maxFileSize, "max-file-size"},
		{&cfg.SafetyMargin, o.safetyMargin, "safety-margin"},
		{&cfg.BWLimit, o.bwLimit, "bwlimit"},
	}
	for _, s := range sizes {
		if s.raw == "" {
			*s.dst = 0
			continue
		}
		n, err := units.ParseSize(s.raw)
		if err != nil {
			return cfg, engine.VerificationPolicy{}, fmt.Errorf("invalid --%s: %w", s.flag, err)
		}
		*s.dst = n
	}

	chunk, err := units.ParseSize(o.chunkSize)
	if err != nil {
		return cfg, engine.VerificationPolicy{}, fmt.Errorf("invalid --chunk-size: %w", err)
	}
	if chunk <= 0 || chunk > 1<<30 {
		return cfg, engine.VerificationPolicy{}, fmt.Errorf("invalid --chunk-size: %s out of range", o.chunkSize)
	}
	cfg.ChunkSize = int(chunk)

	if o.progressHz <= 0 {
		return cfg, engine.VerificationPolicy{}, fmt.Errorf("invalid --progress-hz: %d", o.progressHz)
	}
	cfg.ProgressInterval = time.Second / time.Duration(o.progressHz)

	policy, err := engine.ParsePolicy(o.verify)
	if err != nil {
		return cfg, engine.VerificationPolicy{}, err
	}
	return cfg, policy, nil
}
