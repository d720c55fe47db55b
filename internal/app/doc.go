// Package app wires one batch analysis run together: configuration, the
// per-subject photometry pipeline, bounded concurrent execution across
// recordings, and the export of per-subject and cohort artifacts.
//
// # Flow
//
// A run proceeds in three phases:
//
//	1. Discover the raw recordings in the data directory
//	2. Process and export every subject, a bounded number at a time
//	3. Fold the survivors into the summary and cohort workbooks
//
// Subjects fail independently. A recording that cannot be read, or a trace
// whose numbers degenerate during correction, is recorded in the failure
// report while the rest of the batch continues. Only batch-level problems,
// an unreadable data directory or an unwritable summary, abort the run.
//
// # Error Handling
//
// All errors are returned to the caller for proper handling. The package
// does not call os.Exit() directly, allowing the main function to control
// the exit process.
package app
