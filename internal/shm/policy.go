package shm

import (
	"strings"
	"time"
)

// SpecialWindow is the fixed recency window for special-treatment segment
// families, independent of the user-supplied age threshold.
const SpecialWindow = time.Hour

// Family is a named shared-memory segment family matched by substring
// against the full path.
type Family struct {
	Label     string
	Substring string
}

func (f Family) Matches(path string) bool {
	return f.Substring != "" && strings.Contains(path, f.Substring)
}

// DefaultFamilies covers the segment families MPI stacks leave behind:
// Intel Omni-Path PSM2 shared segments and Open MPI's vader BTL segments.
func DefaultFamilies() []Family {
	return []Family{
		{Label: "PSM2 segments", Substring: "psm2_shm"},
		{Label: "Open MPI vader segments", Substring: "vader_segment"},
	}
}

// FamiliesFromSubstrings builds families from raw substrings, e.g. the
// repeatable --special-pattern flag.
func FamiliesFromSubstrings(substrings []string) []Family {
	families := make([]Family, 0, len(substrings))
	for _, sub := range substrings {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		families = append(families, Family{Label: sub + " segments", Substring: sub})
	}
	return families
}

// Timestamps is the stat triple consulted by the inclusion policy.
type Timestamps struct {
	Modified time.Time
	Changed  time.Time
	Accessed time.Time
}

// NewerThan reports whether any of the three timestamps is strictly newer
// than the cutoff.
func (t Timestamps) NewerThan(cutoff time.Time) bool {
	return t.Modified.After(cutoff) || t.Changed.After(cutoff) || t.Accessed.After(cutoff)
}

// Policy holds the per-run classification parameters. It is built once at
// startup and passed in explicitly; there is no ambient state.
type Policy struct {
	// Cutoff is now minus the user-supplied age threshold.
	Cutoff time.Time
	// SpecialCutoff is now minus SpecialWindow.
	SpecialCutoff time.Time
	// Special enables the shorter window for matching families.
	Special bool
	// Families are the special-treatment segment families.
	Families []Family
}

// NewPolicy derives the cutoffs from a reference instant.
func NewPolicy(now time.Time, threshold time.Duration, special bool, families []Family) Policy {
	return Policy{
		Cutoff:        now.Add(-threshold),
		SpecialCutoff: now.Add(-SpecialWindow),
		Special:       special,
		Families:      families,
	}
}

// Include decides whether a path with the given timestamps is a removal
// candidate (true) or protected by recency (false).
func (p Policy) Include(path string, ts Timestamps) bool {
	cutoff := p.Cutoff
	if p.Special && p.matchesFamily(path) {
		cutoff = p.SpecialCutoff
	}
	return !ts.NewerThan(cutoff)
}

func (p Policy) matchesFamily(path string) bool {
	for _, family := range p.Families {
		if family.Matches(path) {
			return true
		}
	}
	return false
}

// FamilyLabel returns the label of the first family matching path, or ""
// when the path is unidentified.
func FamilyLabel(path string, families []Family) string {
	for _, family := range families {
		if family.Matches(path) {
			return family.Label
		}
	}
	return ""
}
