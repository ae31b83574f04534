package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
	"github.com/spikebike/ud-slurm-addons/internal/lsof"
	"github.com/spikebike/ud-slurm-addons/internal/shm"
)

func newScanCommand(opts *cleanupOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Report the classification of first-level entries without removing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}
}

func runScan(cmd *cobra.Command, opts *cleanupOptions) error {
	logger, err := opts.newLogger()
	if err != nil {
		return err
	}

	policy, _, err := opts.policy(time.Now())
	if err != nil {
		logger.Error("invalid age threshold", logging.Args(logging.String("age", opts.ageSpec))...)
		return errors.Join(errUsage, errReported)
	}

	classifier := shm.NewClassifier(opts.root, policy, logger)
	classification, err := classifier.Scan(cmd.Context())
	if err != nil {
		return err
	}

	inuse := shm.NewPathSet()
	inuseKnown := false
	if os.Geteuid() == 0 {
		entries, err := lsof.New(opts.lsofBinary, opts.root, logger).OpenEntries(cmd.Context())
		if err != nil {
			logger.Warn("open-file detection unavailable", logging.Args(logging.Error(err))...)
		} else {
			inuse = entries
			inuseKnown = true
		}
	} else {
		logger.Warn("not running as root; in-use status unknown")
	}

	rows, err := scanRows(opts.root, policy, classification, inuse, inuseKnown)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Entry", "Family", "Last Activity", "Status", "In Use"}, rows))
	return nil
}

func scanRows(root string, policy shm.Policy, classification shm.Classification, inuse shm.PathSet, inuseKnown bool) ([][]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(filepath.Clean(root), entry.Name())

		family := shm.FamilyLabel(path, policy.Families)
		if family == "" {
			family = "-"
		}

		activity := "?"
		if ts, err := shm.StatTimestamps(path); err == nil {
			activity = humanize.Time(newestTimestamp(ts))
		}

		// An entry in neither set vanished or could not be classified.
		status := "?"
		switch {
		case classification.Included.Has(path):
			status = "stale"
		case classification.Excluded.Has(path):
			status = "recent"
		}

		open := "?"
		if inuseKnown {
			open = "no"
			if inuse.Has(path) {
				open = "yes"
			}
		}

		rows = append(rows, []string{entry.Name(), family, activity, status, open})
	}
	return rows, nil
}

func newestTimestamp(ts shm.Timestamps) time.Time {
	newest := ts.Modified
	if ts.Changed.After(newest) {
		newest = ts.Changed
	}
	if ts.Accessed.After(newest) {
		newest = ts.Accessed
	}
	return newest
}
