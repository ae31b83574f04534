package shm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
)

// Classification is the outcome of a scan. Included already has the
// exclusion set subtracted, so Included and Excluded are disjoint.
type Classification struct {
	Included PathSet
	Excluded PathSet
}

// Classifier walks a shared-memory root and classifies its first-level
// entries against a Policy.
type Classifier struct {
	Root   string
	Policy Policy
	Stat   StatFunc
	Logger *slog.Logger
}

// NewClassifier builds a classifier using stat(2) for timestamps.
func NewClassifier(root string, policy Policy, logger *slog.Logger) *Classifier {
	return &Classifier{
		Root:   filepath.Clean(root),
		Policy: policy,
		Stat:   StatTimestamps,
		Logger: logging.NewComponentLogger(logger, "classifier"),
	}
}

// Scan performs a bottom-up walk of the root. Every file at any depth is
// classified and attributed to its first-level ancestor, so one recently
// touched file anywhere protects the whole entry. First-level directories
// are additionally classified against their own timestamps, feeding the
// inclusion set only. A path that vanishes between listing and stat is
// skipped with a warning; other stat failures protect the entry.
func (c *Classifier) Scan(ctx context.Context) (Classification, error) {
	root := filepath.Clean(c.Root)
	entries, err := os.ReadDir(root)
	if err != nil {
		return Classification{}, fmt.Errorf("scan %s: %w", root, err)
	}

	result := Classification{Included: NewPathSet(), Excluded: NewPathSet()}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return Classification{}, err
		}
		top := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			if err := c.walk(ctx, top, top, &result); err != nil {
				return Classification{}, err
			}
			// The directory's own timestamps only ever add a candidate;
			// protection comes from child files alone.
			included, ok := c.classify(top)
			if ok && included {
				result.Included.Add(top)
			}
			continue
		}
		c.classifyInto(top, top, &result)
	}

	result.Included.Subtract(result.Excluded)
	return result, nil
}

// walk descends below a first-level directory, children before parents.
func (c *Classifier) walk(ctx context.Context, dir, top string, result *Classification) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Logger.Warn("directory vanished during scan", logging.Args(logging.String("path", dir))...)
			return nil
		}
		c.Logger.Warn("unreadable directory during scan", logging.Args(logging.String("path", dir), logging.Error(err))...)
		return nil
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := c.walk(ctx, path, top, result); err != nil {
				return err
			}
			continue
		}
		c.classifyInto(path, top, result)
	}
	return nil
}

func (c *Classifier) classifyInto(path, top string, result *Classification) {
	included, ok := c.classify(path)
	if !ok {
		return
	}
	if included {
		result.Included.Add(top)
	} else {
		result.Excluded.Add(top)
	}
}

// classify returns (include decision, ok). ok is false when the path
// vanished mid-scan.
func (c *Classifier) classify(path string) (bool, bool) {
	ts, err := c.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Logger.Warn("path vanished during scan", logging.Args(logging.String("path", path))...)
			return false, false
		}
		c.Logger.Warn("stat failed, protecting entry", logging.Args(logging.String("path", path), logging.Error(err))...)
		return false, true
	}
	return c.Policy.Include(path, ts), true
}
