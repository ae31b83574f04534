package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

// CheckPrivilege verifies the process runs with the effective UID required
// by the system-wide open-file scan.
func CheckPrivilege() Result {
	const name = "Root privileges"
	if os.Geteuid() != 0 {
		return Result{Name: name, Detail: fmt.Sprintf("running as uid %d; open-file detection requires root", os.Geteuid())}
	}
	return Result{Name: name, Passed: true, Detail: "running as root"}
}

// CheckRootDirectory verifies that the shared-memory root exists and is
// traversable.
func CheckRootDirectory(path string) Result {
	const name = "Shared-memory root"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckFilesystem verifies the root lives on a RAM-backed filesystem.
func CheckFilesystem(path string) Result {
	const name = "Filesystem type"
	kind, ram, err := filesystemKind(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if !ram {
		return Result{Name: name, Detail: fmt.Sprintf("%s is on %s, not tmpfs or ramfs", path, kind)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, kind)}
}

// RAMBacked reports whether path is on tmpfs or ramfs.
func RAMBacked(path string) (bool, error) {
	_, ram, err := filesystemKind(path)
	return ram, err
}

func filesystemKind(path string) (string, bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return "", false, err
	}
	switch st.Type {
	case unix.TMPFS_MAGIC:
		return "tmpfs", true, nil
	case unix.RAMFS_MAGIC:
		return "ramfs", true, nil
	default:
		return fmt.Sprintf("filesystem type 0x%x", st.Type), false, nil
	}
}

// CheckUsage reports how full the shared-memory filesystem is. It never
// fails the preflight; it is informational.
func CheckUsage(path string) Result {
	const name = "Shared-memory usage"
	stat, err := disk.Usage(path)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{
		Name:     name,
		Passed:   true,
		Optional: true,
		Detail: fmt.Sprintf("%s of %s used (%.1f%%)",
			humanize.IBytes(stat.Used), humanize.IBytes(stat.Total), stat.UsedPercent),
	}
}

// Requirement defines an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// CheckBinaries evaluates the provided requirements via PATH lookup.
func CheckBinaries(requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		result := Result{Name: req.Name, Optional: req.Optional}
		if cmd == "" {
			result.Detail = "command not configured"
			results = append(results, result)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, result)
			continue
		}
		result.Passed = true
		result.Detail = resolved
		results = append(results, result)
	}
	return results
}
