package shm

import (
	"time"

	"golang.org/x/sys/unix"
)

// StatFunc supplies the timestamp triple for a path. Production code uses
// StatTimestamps; tests inject fixtures because ctime cannot be forged on
// a real filesystem.
type StatFunc func(path string) (Timestamps, error)

// StatTimestamps reads the triple via stat(2), following symlinks.
func StatTimestamps(path string) (Timestamps, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Timestamps{}, err
	}
	return Timestamps{
		Modified: time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Changed:  time.Unix(st.Ctim.Sec, st.Ctim.Nsec),
		Accessed: time.Unix(st.Atim.Sec, st.Atim.Nsec),
	}, nil
}
