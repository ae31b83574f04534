package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spikebike/ud-slurm-addons/internal/lsof"
	"github.com/spikebike/ud-slurm-addons/internal/preflight"
)

func newDoctorCommand(opts *cleanupOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host is ready for cleanup runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts)
		},
	}
}

func runDoctor(cmd *cobra.Command, opts *cleanupOptions) error {
	binary := opts.lsofBinary
	if binary == "" {
		binary = lsof.DefaultBinary
	}
	results := preflight.RunAll(preflight.Settings{Root: opts.root, LsofBinary: binary})

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	printDoctorReport(out, results, colorize)

	if failures := preflight.RequiredFailures(results); failures > 0 {
		return fmt.Errorf("%d preflight check(s) failed", failures)
	}
	return nil
}

func printDoctorReport(out io.Writer, results []preflight.Result, colorize bool) {
	for _, line := range renderSectionHeader("shm-cleanup readiness", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range results {
		kind := statusError
		switch {
		case result.Passed && result.Optional:
			kind = statusInfo
		case result.Passed:
			kind = statusOK
		case result.Optional:
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
}
