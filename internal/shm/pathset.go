package shm

import "sort"

// PathSet is a set of normalized absolute first-level paths.
type PathSet map[string]struct{}

func NewPathSet(paths ...string) PathSet {
	set := make(PathSet, len(paths))
	for _, p := range paths {
		set.Add(p)
	}
	return set
}

func (s PathSet) Add(path string) {
	s[path] = struct{}{}
}

func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

func (s PathSet) Len() int {
	return len(s)
}

// Diff returns the members of s not present in other.
func (s PathSet) Diff(other PathSet) PathSet {
	result := make(PathSet)
	for p := range s {
		if !other.Has(p) {
			result.Add(p)
		}
	}
	return result
}

// Subtract removes every member of other from s in place.
func (s PathSet) Subtract(other PathSet) {
	for p := range other {
		delete(s, p)
	}
}

// Sorted returns the members in lexical order for deterministic logs and
// removal order.
func (s PathSet) Sorted() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
