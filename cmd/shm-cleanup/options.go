package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spikebike/ud-slurm-addons/internal/age"
	"github.com/spikebike/ud-slurm-addons/internal/logging"
	"github.com/spikebike/ud-slurm-addons/internal/shm"
)

const defaultRoot = "/dev/shm"

// cleanupOptions carries every flag shared by the root command and its
// subcommands.
type cleanupOptions struct {
	verbose         int
	quiet           int
	dryRun          bool
	timestamps      bool
	logFile         string
	logFormat       string
	ageSpec         string
	noSpecial       bool
	specialPatterns []string
	root            string
	lsofBinary      string
	force           bool
}

// level maps the -v/-q counters onto the verbosity ladder. The base is
// ERROR, or INFO under --dry-run so the plan is visible without extra
// flags.
func (o *cleanupOptions) level() slog.Level {
	base := 3 // ERROR
	if o.dryRun {
		base = 1 // INFO
	}
	idx := base - o.verbose + o.quiet
	if idx < 0 {
		idx = 0
	}
	if idx >= len(logging.Levels) {
		idx = len(logging.Levels) - 1
	}
	return logging.Levels[idx]
}

// newLogger builds the run logger. When output lands in a shared log file
// or a JSON pipeline, a run_id correlates the lines of one cron-driven
// invocation.
func (o *cleanupOptions) newLogger() (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:      o.level(),
		Format:     o.logFormat,
		FilePath:   o.logFile,
		Timestamps: o.timestamps,
	})
	if err != nil {
		return nil, err
	}
	toFile := o.logFile != "" && o.logFile != "-"
	if toFile || strings.EqualFold(strings.TrimSpace(o.logFormat), "json") {
		logger = logger.With(logging.String("run_id", uuid.NewString()))
	}
	return logger, nil
}

func (o *cleanupOptions) families() []shm.Family {
	if len(o.specialPatterns) > 0 {
		return shm.FamiliesFromSubstrings(o.specialPatterns)
	}
	return shm.DefaultFamilies()
}

// policy parses the age threshold and derives the per-run cutoffs. The
// error, if any, is an argument error.
func (o *cleanupOptions) policy(now time.Time) (shm.Policy, time.Duration, error) {
	threshold, err := age.ParseThreshold(o.ageSpec)
	if err != nil {
		return shm.Policy{}, 0, err
	}
	return shm.NewPolicy(now, threshold, !o.noSpecial, o.families()), threshold, nil
}
