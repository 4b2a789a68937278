package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/units"
)

func newStrategyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy <source> <destination>",
		Short: "Print the copy strategy ferry would use, without copying",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := setupLogging(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			cfg, policy, err := opts.resolve(cmd, logger)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg)
			if err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			s := eng.DetermineStrategy(args[0], args[1], info.Size())

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, s)
			if opts.verbose {
				fmt.Fprintf(out, "size       %s\n", units.FormatBytes(info.Size()))
				fmt.Fprintf(out, "threshold  %s\n", units.FormatBytes(cfg.StrategyThreshold))
				fmt.Fprintf(out, "verify     %s (%v)\n", policy, policy.ShouldVerify(info.Size()))
				if s == engine.Staged {
					fmt.Fprintf(out, "hash       %s\n", eng.HashAlgorithm())
				}
			}
			return nil
		},
	}
}
