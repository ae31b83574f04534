package shm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
)

// fixtureStat serves timestamp triples from a map keyed by path relative
// to the root, so tests control ctime, which cannot be set on a real
// filesystem.
func fixtureStat(t *testing.T, root string, ages map[string]time.Duration, fallback time.Duration) StatFunc {
	t.Helper()
	return func(path string) (Timestamps, error) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return Timestamps{}, err
		}
		if age, ok := ages[rel]; ok {
			return agoTriple(age), nil
		}
		return agoTriple(fallback), nil
	}
}

func writeTree(t *testing.T, root string, files []string, dirs []string) {
	t.Helper()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, file := range files {
		path := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestClassifier(root string, policy Policy, stat StatFunc) *Classifier {
	c := NewClassifier(root, policy, logging.NewNop())
	c.Stat = stat
	return c
}

func TestScanClassifiesFirstLevelFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"old.dat", "fresh.dat", "psm2_shm_9"}, nil)

	stat := fixtureStat(t, root, map[string]time.Duration{
		"old.dat":    48 * time.Hour,
		"fresh.dat":  time.Minute,
		"psm2_shm_9": 30 * time.Minute,
	}, 48*time.Hour)
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Included.Has(filepath.Join(root, "old.dat")) {
		t.Error("old first-level file should be included")
	}
	if !result.Excluded.Has(filepath.Join(root, "fresh.dat")) {
		t.Error("fresh first-level file should be excluded")
	}
	if !result.Excluded.Has(filepath.Join(root, "psm2_shm_9")) {
		t.Error("psm2 segment inside the special window should be excluded")
	}
}

func TestScanRecentChildFileProtectsTopLevelDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"foo/stale.dat", "foo/sub/bar"}, nil)

	// The directory itself and one child are old; a single deep fresh
	// file must protect the whole first-level entry.
	stat := fixtureStat(t, root, map[string]time.Duration{
		"foo":           72 * time.Hour,
		"foo/stale.dat": 72 * time.Hour,
		"foo/sub/bar":   10 * time.Second,
	}, 72*time.Hour)
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(root, "foo")
	if result.Included.Has(top) {
		t.Error("protected entry must not remain in the inclusion set")
	}
	if !result.Excluded.Has(top) {
		t.Error("entry with a recent child file should be excluded")
	}
}

func TestScanOldDirectoryWithOldChildrenIsCandidate(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"job17/a", "job17/b"}, []string{"empty_dir"})

	stat := fixtureStat(t, root, nil, 48*time.Hour)
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"job17", "empty_dir"} {
		if !result.Included.Has(filepath.Join(root, name)) {
			t.Errorf("%s should be a removal candidate", name)
		}
	}
}

func TestScanFreshDirectoryTimestampDoesNotProtect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"job9/core"}, nil)

	// Directory mtime is fresh (e.g. a sibling was unlinked recently) but
	// its only file is old: directory timestamps never exclude.
	stat := fixtureStat(t, root, map[string]time.Duration{
		"job9":      time.Minute,
		"job9/core": 48 * time.Hour,
	}, 48*time.Hour)
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(root, "job9")
	if !result.Included.Has(top) {
		t.Error("directory with only old files should be included")
	}
	if result.Excluded.Has(top) {
		t.Error("a directory's own timestamps must never exclude it")
	}
}

func TestScanSetsAreDisjoint(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"a", "b", "c/x", "c/y", "d/deep/file", "psm2_shm_1", "vader_segment.n0.3",
	}, []string{"e"})

	stat := fixtureStat(t, root, map[string]time.Duration{
		"b":           time.Minute,
		"c/y":         5 * time.Minute,
		"d/deep/file": 30 * time.Hour,
	}, 48*time.Hour)
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for path := range result.Included {
		if result.Excluded.Has(path) {
			t.Fatalf("%s present in both sets", path)
		}
	}
}

func TestScanIdempotentWithoutFilesystemChanges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"a", "b/x", "psm2_shm_4"}, nil)

	stat := fixtureStat(t, root, map[string]time.Duration{
		"b/x": time.Minute,
	}, 48*time.Hour)
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	first, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Included.Sorted(), second.Included.Sorted()) {
		t.Fatalf("scan not idempotent: %v vs %v", first.Included.Sorted(), second.Included.Sorted())
	}
}

func TestScanSkipsVanishedPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"gone", "stays"}, nil)

	stat := func(path string) (Timestamps, error) {
		if filepath.Base(path) == "gone" {
			return Timestamps{}, os.ErrNotExist
		}
		return agoTriple(48 * time.Hour), nil
	}
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(root, "gone")
	if result.Included.Has(gone) || result.Excluded.Has(gone) {
		t.Error("vanished path should be absent from both sets")
	}
	if !result.Included.Has(filepath.Join(root, "stays")) {
		t.Error("remaining path should still be classified")
	}
}

func TestScanStatFailureProtectsEntry(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"odd"}, nil)

	stat := func(string) (Timestamps, error) {
		return Timestamps{}, errors.New("permission denied")
	}
	c := newTestClassifier(root, testPolicy(24*time.Hour, true), stat)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Included.Has(filepath.Join(root, "odd")) {
		t.Error("entry with failing stat must not become a removal candidate")
	}
}

func TestScanMissingRootIsError(t *testing.T) {
	c := newTestClassifier(filepath.Join(t.TempDir(), "nope"), testPolicy(24*time.Hour, true), StatTimestamps)
	if _, err := c.Scan(context.Background()); err == nil {
		t.Fatal("missing root should be a structural error")
	}
}

func TestScanHonorsContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"a"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClassifier(root, testPolicy(24*time.Hour, true), StatTimestamps)
	if _, err := c.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
