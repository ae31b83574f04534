// Package logging builds the slog logger shared by all shm-cleanup
// components. It provides a console handler whose output stays readable in
// cron mail and terminal sessions alike, a JSON handler for log shippers,
// and a CRITICAL level above slog's built-in error level for failures that
// abort the run.
package logging
