// Package lsof detects which first-level entries under the shared-memory
// root are currently held open somewhere on the system.
package lsof

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
	"github.com/spikebike/ud-slurm-addons/internal/shm"
)

// DefaultBinary is resolved via PATH; cron environments with thin PATHs
// can pin an absolute path through --lsof.
const DefaultBinary = "lsof"

// Command queries open files under Root by shelling out to lsof.
type Command struct {
	Binary string
	Root   string
	Logger *slog.Logger
}

// New builds an lsof-backed query for the given root.
func New(binary, root string, logger *slog.Logger) *Command {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Command{
		Binary: binary,
		Root:   filepath.Clean(root),
		Logger: logging.NewComponentLogger(logger, "lsof"),
	}
}

// OpenEntries runs `lsof -lnP +D <root>` and extracts the deduplicated set
// of first-level paths with at least one open file description.
//
// lsof +D exits non-zero whenever some entries under the directory are
// simply not in use, so a non-zero exit is expected and the output is
// consumed anyway. Only a failure to invoke the tool at all is an error.
func (c *Command) OpenEntries(ctx context.Context) (shm.PathSet, error) {
	cmd := exec.CommandContext(ctx, c.Binary, "-lnP", "+D", c.Root)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("invoke %s: %w", c.Binary, err)
		}
		c.Logger.Debug("lsof exited non-zero", logging.Args(logging.Int("exit_code", exitErr.ExitCode()))...)
	}

	return ParseOpenEntries(&stdout, c.Root), nil
}

// ParseOpenEntries scans lsof output as an untrusted line stream, keeping
// the first-level portion of every path under root and silently ignoring
// everything else.
func ParseOpenEntries(r io.Reader, root string) shm.PathSet {
	pattern := regexp.MustCompile(regexp.QuoteMeta(filepath.Clean(root)) + `/[^/\s]+`)
	entries := shm.NewPathSet()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if match := pattern.FindString(scanner.Text()); match != "" {
			entries.Add(match)
		}
	}
	return entries
}
