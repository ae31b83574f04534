package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spikebike/ud-slurm-addons/internal/age"
	"github.com/spikebike/ud-slurm-addons/internal/logging"
	"github.com/spikebike/ud-slurm-addons/internal/sweep"
)

func newRootCommand() *cobra.Command {
	opts := &cleanupOptions{}

	rootCmd := &cobra.Command{
		Use:           "shm-cleanup",
		Short:         "Remove orphaned shared-memory segments",
		Long: "shm-cleanup removes first-level entries under the shared-memory root that\n" +
			"are older than the age threshold and not held open by any process. Known\n" +
			"interconnect segment families (PSM2, Open MPI vader) get a fixed one-hour\n" +
			"window instead, so they must effectively be in use to survive.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase level of verbosity")
	flags.CountVarP(&opts.quiet, "quiet", "q", "decrease level of verbosity")
	flags.BoolVarP(&opts.timestamps, "show-log-timestamps", "t", false, "display timestamps on all logged messages")
	flags.StringVarP(&opts.logFile, "log-file", "l", "", "send all logging to this file instead of stderr; timestamps are always enabled when logging to a file (\"-\" means stderr)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log output format (console or json)")
	flags.StringVarP(&opts.ageSpec, "age", "a", age.DefaultThreshold, "only items older than this will be removed; integer or floating-point value with optional unit of s/m/h/d (default unit: d)")
	flags.BoolVar(&opts.noSpecial, "no-special-treatment", false, "do not treat PSM2 and vader segment files any differently than other files")
	flags.StringArrayVar(&opts.specialPatterns, "special-pattern", nil, "substring identifying a special-treatment segment family; repeatable, replaces the built-in PSM2/vader patterns")
	flags.StringVar(&opts.root, "root", defaultRoot, "shared-memory root to clean")
	flags.StringVar(&opts.lsofBinary, "lsof", "", "lsof binary used for open-file detection (default: lsof from PATH)")

	rootCmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "do not remove any files, just display what would be done; sets the base verbosity to INFO")
	rootCmd.Flags().BoolVar(&opts.force, "force", false, "clean a root that is not on tmpfs or ramfs")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %s", errUsage, err)
	})

	rootCmd.AddCommand(newScanCommand(opts))
	rootCmd.AddCommand(newDoctorCommand(opts))

	return rootCmd
}

func runCleanup(cmd *cobra.Command, opts *cleanupOptions) error {
	logger, err := opts.newLogger()
	if err != nil {
		return err
	}

	policy, threshold, err := opts.policy(time.Now())
	if err != nil {
		logger.Error("invalid age threshold", logging.Args(logging.String("age", opts.ageSpec))...)
		return errors.Join(errUsage, errReported)
	}

	logger.Info("age threshold", logging.Args(logging.Duration("threshold", threshold))...)
	logger.Info("cutoff timestamps",
		logging.Args(
			logging.Time("standard", policy.Cutoff),
			logging.Time("special", policy.SpecialCutoff),
		)...)
	if opts.noSpecial {
		logger.Info("no special treatment of PSM2 and vader segment files")
	}

	runner := sweep.NewRunner(sweep.Options{
		Root:       opts.root,
		Policy:     policy,
		DryRun:     opts.dryRun,
		Force:      opts.force,
		LsofBinary: opts.lsofBinary,
	}, logger)

	if err := runner.Run(cmd.Context()); err != nil {
		// The runner reports its own failures through the logger.
		return errors.Join(errReported, err)
	}
	return nil
}
