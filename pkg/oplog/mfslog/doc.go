// Package mfslog implements the MFS-style LoggedObject variant: one built
// on oplog/tsclog's Logger and merge helpers, but with two additions a
// plain TSC-ordered logger can't provide on its own —
//
//   - a per-CPU (start_tsc, end_tsc) pair, read and written through a
//     sequence counter, that lets a synchronizing reader wait until every
//     CPU's in-flight operation has either committed or started after the
//     reader's wait bound;
//   - a bounded finish step that applies only entries below that bound,
//     leaving later entries in place for a future sync instead of forcing
//     every pending logger to be fully drained on every call.
package mfslog
