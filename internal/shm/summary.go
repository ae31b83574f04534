package shm

import (
	"log/slog"

	"github.com/spikebike/ud-slurm-addons/internal/logging"
)

// FamilyCount pairs a segment family with how many set members match it.
type FamilyCount struct {
	Family Family
	Count  int
}

// Summary breaks a path set into per-family counts plus an unidentified
// bucket.
type Summary struct {
	Total        int
	Families     []FamilyCount
	Unidentified []string
}

// Summarize counts set members per family. Each path is attributed to the
// first family that matches it; the rest are unidentified.
func Summarize(set PathSet, families []Family) Summary {
	summary := Summary{
		Total:    set.Len(),
		Families: make([]FamilyCount, len(families)),
	}
	for i, family := range families {
		summary.Families[i].Family = family
	}
	for _, path := range set.Sorted() {
		matched := false
		for i, family := range families {
			if family.Matches(path) {
				summary.Families[i].Count++
				matched = true
				break
			}
		}
		if !matched {
			summary.Unidentified = append(summary.Unidentified, path)
		}
	}
	return summary
}

// Identified returns the number of members attributed to a known family.
func (s Summary) Identified() int {
	total := 0
	for _, fc := range s.Families {
		total += fc.Count
	}
	return total
}

// LogSummary reports a set breakdown. Unidentified members are suspicious
// on a dedicated shared-memory filesystem, so their presence raises the
// whole summary to WARN and lists them; otherwise the family counts go out
// at INFO when there is anything to say.
func LogSummary(logger *slog.Logger, set PathSet, families []Family, what string) {
	summary := Summarize(set, families)

	attrs := []logging.Attr{logging.Int("total", summary.Total)}
	for _, fc := range summary.Families {
		attrs = append(attrs, logging.Int(fc.Family.Substring, fc.Count))
	}

	if len(summary.Unidentified) > 0 {
		attrs = append(attrs, logging.Int("unidentified", len(summary.Unidentified)))
		logger.Warn("found "+what, logging.Args(attrs...)...)
		for _, path := range summary.Unidentified {
			logger.Warn("unidentified entry", logging.Args(logging.String("path", path))...)
		}
		return
	}

	if summary.Identified() > 0 {
		logger.Info("found "+what, logging.Args(attrs...)...)
	} else {
		logger.Info("found "+what, logging.Args(logging.Int("total", summary.Total))...)
	}
}
