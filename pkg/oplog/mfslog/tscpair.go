package mfslog

import "github.com/oplog-project/oplog/pkg/oplog"

// tscPair is one CPU's (start_tsc, end_tsc) advertisement: the timestamp at
// which its current operation began, and the timestamp at which its
// previous operation ended. A waiter reads both atomically (via the
// embedded sequence counter) to decide whether this CPU might still commit
// an entry below a given bound.
type tscPair struct {
	seq   oplog.SeqCount
	start uint64
	end   uint64
}

// read returns a consistent (start, end) snapshot, retrying across any
// write that overlaps the read.
func (p *tscPair) read() (start, end uint64) {
	for {
		gen := p.seq.Snapshot()
		start, end = p.start, p.end

		if !p.seq.Retry(gen) {
			return start, end
		}
	}
}

// updateStart publishes a new start_tsc for an operation about to begin.
func (p *tscPair) updateStart(ts uint64) {
	p.seq.BeginWrite()
	p.start = ts
	p.seq.EndWrite()
}

// updateEnd publishes a new end_tsc for an operation that just committed.
func (p *tscPair) updateEnd(ts uint64) {
	p.seq.BeginWrite()
	p.end = ts
	p.seq.EndWrite()
}

// inFlightBelow reports whether this CPU's advertised state shows an
// operation that started before waitTSC and has not yet ended — i.e. one
// that might still commit an entry a bounded flush at waitTSC would need.
// end < start is how "an operation is currently in progress" is expressed:
// the most recent end_tsc update always precedes the matching start_tsc
// update for the operation after it.
func inFlightBelow(start, end, waitTSC uint64) bool {
	return end < start && start < waitTSC
}
