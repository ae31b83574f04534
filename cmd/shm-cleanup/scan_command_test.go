package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spikebike/ud-slurm-addons/internal/shm"
)

func TestScanRowsStatusColumn(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"stale_seg", "fresh_seg", "ghost_seg"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	policy := shm.NewPolicy(time.Now(), 24*time.Hour, true, shm.DefaultFamilies())
	// ghost_seg is in neither set, as happens when the entry vanishes
	// between the directory listing and classification.
	classification := shm.Classification{
		Included: shm.NewPathSet(filepath.Join(root, "stale_seg")),
		Excluded: shm.NewPathSet(filepath.Join(root, "fresh_seg")),
	}

	rows, err := scanRows(root, policy, classification, shm.NewPathSet(), true)
	if err != nil {
		t.Fatal(err)
	}

	statuses := make(map[string]string, len(rows))
	for _, row := range rows {
		statuses[row[0]] = row[3]
	}
	want := map[string]string{
		"stale_seg": "stale",
		"fresh_seg": "recent",
		"ghost_seg": "?",
	}
	for name, status := range want {
		if statuses[name] != status {
			t.Errorf("status[%s] = %q, want %q", name, statuses[name], status)
		}
	}
}

func TestScanRowsInUseColumnUnknownWithoutPrivilege(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "seg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	policy := shm.NewPolicy(time.Now(), 24*time.Hour, true, shm.DefaultFamilies())
	classification := shm.Classification{
		Included: shm.NewPathSet(),
		Excluded: shm.NewPathSet(filepath.Join(root, "seg")),
	}

	rows, err := scanRows(root, policy, classification, shm.NewPathSet(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][4] != "?" {
		t.Fatalf("in-use column should be unknown without privilege: %v", rows)
	}
}
