// Package shm implements the age-based classification of first-level
// entries under a shared-memory root.
//
// As jobs are killed or cancelled, segments get orphaned under /dev/shm
// and tie up memory. The classifier walks the root bottom-up and sorts
// first-level entries into an inclusion set (removal candidates) and an
// exclusion set (protected by recency). A file at any depth whose
// timestamps are newer than the cutoff protects its whole first-level
// ancestor; first-level directories themselves can only add candidates,
// never protect them. Known interconnect segment families (PSM2, Open MPI
// vader by default) get a fixed one-hour window instead of the
// user-configurable cutoff, so they must effectively be held open to
// survive.
package shm
