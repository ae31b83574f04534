// Package preflight checks that a host is ready for shm cleanup runs:
// privilege, a usable RAM-backed root, and the external binaries the
// pipeline shells out to.
package preflight

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Settings selects what to check.
type Settings struct {
	Root       string
	LsofBinary string
}

// RunAll executes every check for the given settings.
func RunAll(settings Settings) []Result {
	results := []Result{
		CheckPrivilege(),
		CheckRootDirectory(settings.Root),
		CheckFilesystem(settings.Root),
	}
	results = append(results, CheckBinaries([]Requirement{
		{Name: "lsof", Command: settings.LsofBinary, Description: "Required for open-file detection"},
		{Name: "rm", Command: "rm", Description: "Required for entry removal"},
	})...)
	results = append(results, CheckUsage(settings.Root))
	return results
}

// RequiredFailures counts failed non-optional checks.
func RequiredFailures(results []Result) int {
	failures := 0
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failures++
		}
	}
	return failures
}
