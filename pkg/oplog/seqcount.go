package oplog

import "sync/atomic"

// SeqCount is a sequence-counter protocol for lock-free reads of a small
// piece of state, used by oplog/mfslog for its per-CPU (start_tsc, end_tsc)
// pairs: writers bump the counter to odd, mutate the protected value, then
// bump it back to even; readers snapshot the counter, read the value, and
// retry if the counter was odd or changed across the read.
type SeqCount struct {
	gen atomic.Uint64
}

// Snapshot returns the current generation. An odd value means a writer is
// mid-update.
func (s *SeqCount) Snapshot() uint64 {
	return s.gen.Load()
}

// BeginWrite bumps the generation to odd, publishing "update in progress"
// to any concurrent reader.
func (s *SeqCount) BeginWrite() {
	s.gen.Add(1)
}

// EndWrite bumps the generation back to even, publishing "update complete".
func (s *SeqCount) EndWrite() {
	s.gen.Add(1)
}

// Retry reports whether a read that began when Snapshot returned start must
// be discarded and retried: either the generation was odd at the start (a
// write was in progress) or it has since changed (a write completed or
// started during the read).
func (s *SeqCount) Retry(start uint64) bool {
	return start%2 == 1 || s.gen.Load() != start
}
