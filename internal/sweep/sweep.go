// Package sweep orchestrates the cleanup pipeline: age classification,
// open-file detection, set reconciliation, and removal.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
	"github.com/spikebike/ud-slurm-addons/internal/lsof"
	"github.com/spikebike/ud-slurm-addons/internal/preflight"
	"github.com/spikebike/ud-slurm-addons/internal/shm"
)

var (
	// ErrPrivilege means the open-file scan cannot see all processes.
	ErrPrivilege = errors.New("insufficient privileges")
	// ErrUnsafeRoot means the root is not RAM-backed and --force was not
	// given.
	ErrUnsafeRoot = errors.New("root is not a RAM-backed filesystem")
)

// Options are the per-run parameters assembled from the CLI.
type Options struct {
	Root       string
	Policy     shm.Policy
	DryRun     bool
	Force      bool
	LsofBinary string
}

// Scanner produces the age classification of the root.
type Scanner interface {
	Scan(ctx context.Context) (shm.Classification, error)
}

// OpenFileQuery produces the set of first-level entries currently open.
type OpenFileQuery interface {
	OpenEntries(ctx context.Context) (shm.PathSet, error)
}

// Runner executes one cleanup pass. Collaborators are exported so tests
// and callers can substitute them; NewRunner wires the production set.
type Runner struct {
	Options   Options
	Logger    *slog.Logger
	Scanner   Scanner
	OpenFiles OpenFileQuery
	Remover   Remover
	// Privileged reports whether the process can see every open file.
	Privileged func() bool
	// RAMBacked reports whether the root lives on tmpfs/ramfs.
	RAMBacked func(path string) (bool, error)
	// Usage supplies filesystem usage telemetry; nil disables it.
	Usage UsageFunc
}

// NewRunner builds a runner with production collaborators.
func NewRunner(opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		Options:    opts,
		Logger:     logger,
		Scanner:    shm.NewClassifier(opts.Root, opts.Policy, logger),
		OpenFiles:  lsof.New(opts.LsofBinary, opts.Root, logger),
		Remover:    NewRemover(),
		Privileged: func() bool { return os.Geteuid() == 0 },
		RAMBacked:  preflight.RAMBacked,
		Usage:      disk.Usage,
	}
}

// Run performs a single cleanup pass. Structural failures (unusable root,
// missing privilege, unlaunchable lsof) abort with an error; individual
// removal failures are logged and absorbed.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.checkRoot(); err != nil {
		return err
	}

	families := r.Options.Policy.Families
	before := logUsage(r.Logger, r.Usage, r.Options.Root, "shm usage before cleanup")

	classification, err := r.Scanner.Scan(ctx)
	if err != nil {
		logging.Critical(r.Logger, "classification failed", logging.Error(err))
		return err
	}
	shm.LogSummary(r.Logger, classification.Included, families,
		fmt.Sprintf("removable first-level entries under %s", r.Options.Root))

	// The open-file scan only sees every process table as root; anything
	// less and stale-looking but live segments would be deleted.
	if !r.Privileged() {
		logging.Critical(r.Logger, fmt.Sprintf("scanning for active %s files requires root privileges", r.Options.Root))
		return ErrPrivilege
	}

	inuse, err := r.OpenFiles.OpenEntries(ctx)
	if err != nil {
		logging.Critical(r.Logger, "open-file detection failed", logging.Error(err))
		return err
	}
	shm.LogSummary(r.Logger, inuse, families,
		fmt.Sprintf("in-use first-level entries under %s", r.Options.Root))

	remove := classification.Included.Diff(inuse)
	if remove.Len() < classification.Included.Len() {
		shm.LogSummary(r.Logger, remove, families,
			fmt.Sprintf("first-level entries under %s to be removed", r.Options.Root))
	}

	if remove.Len() == 0 {
		r.Logger.Warn(fmt.Sprintf("nothing to be removed from %s", r.Options.Root))
		return nil
	}

	if r.Options.DryRun {
		r.Logger.Info("dry-run summary of actions that would be performed")
		for _, path := range remove.Sorted() {
			r.Logger.Info("would remove", logging.Args(logging.String("path", path))...)
		}
		return nil
	}

	r.Logger.Info("processing removal list")
	for _, path := range remove.Sorted() {
		if err := r.Remover.Remove(ctx, path); err != nil {
			r.Logger.Warn("removal failed", logging.Args(logging.String("path", path), logging.Error(err))...)
			continue
		}
		r.Logger.Info("removed", logging.Args(logging.String("path", path))...)
	}
	after := logUsage(r.Logger, r.Usage, r.Options.Root, "shm usage after cleanup")
	logReclaimed(r.Logger, before, after)
	return nil
}

// checkRoot refuses apply-mode runs against a root that is not RAM-backed
// unless forced; a mistyped --root must not turn the tool into rm -rf on
// persistent storage. Dry-run only warns.
func (r *Runner) checkRoot() error {
	if r.RAMBacked == nil {
		return nil
	}
	ram, err := r.RAMBacked(r.Options.Root)
	if err != nil {
		// The classifier reports unusable roots with a better message.
		r.Logger.Debug("filesystem type check failed", logging.Args(logging.String("path", r.Options.Root), logging.Error(err))...)
		return nil
	}
	if ram {
		return nil
	}
	if r.Options.DryRun {
		r.Logger.Warn("root is not on a tmpfs or ramfs filesystem", logging.Args(logging.String("path", r.Options.Root))...)
		return nil
	}
	if r.Options.Force {
		r.Logger.Warn("root is not on a tmpfs or ramfs filesystem, proceeding due to --force",
			logging.Args(logging.String("path", r.Options.Root))...)
		return nil
	}
	logging.Critical(r.Logger, "refusing to clean a root that is not on tmpfs or ramfs (use --force to override)",
		logging.String("path", r.Options.Root))
	return fmt.Errorf("%w: %s", ErrUnsafeRoot, r.Options.Root)
}
