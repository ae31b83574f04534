package sweep

import (
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
)

// UsageFunc reports filesystem usage for a path. Production code uses
// gopsutil; tests inject fixtures.
type UsageFunc func(path string) (*disk.UsageStat, error)

// logUsage emits shm filesystem usage telemetry. Best-effort: failures are
// reported at debug and never affect the run.
func logUsage(logger *slog.Logger, usage UsageFunc, root, msg string) *disk.UsageStat {
	if usage == nil {
		return nil
	}
	stat, err := usage(root)
	if err != nil {
		logger.Debug("usage query failed", logging.Args(logging.String("path", root), logging.Error(err))...)
		return nil
	}
	logger.Info(msg,
		logging.Args(
			logging.String("total", humanize.IBytes(stat.Total)),
			logging.String("used", humanize.IBytes(stat.Used)),
			logging.String("free", humanize.IBytes(stat.Free)),
		)...)
	return stat
}

func logReclaimed(logger *slog.Logger, before, after *disk.UsageStat) {
	if before == nil || after == nil || after.Used >= before.Used {
		return
	}
	logger.Info("memory reclaimed", logging.Args(logging.String("bytes", humanize.IBytes(before.Used-after.Used)))...)
}
