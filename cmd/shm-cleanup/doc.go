// Package main hosts the shm-cleanup CLI.
//
// The root command runs one cleanup pass over the shared-memory root,
// removing first-level entries that are old by the age policy and not
// held open by any process. The scan subcommand reports the same
// classification read-only, and doctor checks host readiness. All option
// assembly happens here; the pipeline logic lives in the internal
// packages.
package main
