package mfslog

import (
	"runtime"

	"github.com/oplog-project/oplog/pkg/oplog"
	"github.com/oplog-project/oplog/pkg/oplog/host"
	"github.com/oplog-project/oplog/pkg/oplog/tsclog"
)

// Object is a LoggedObject built on tsclog's Logger and k-way merge, with
// per-CPU (start_tsc, end_tsc) tracking and a bounded synchronize that can
// wait for, and then flush, only the entries that committed before a given
// timestamp — leaving later entries deferred for the next sync.
type Object struct {
	host host.Host
	core *oplog.Object[tsclog.Logger]
	pairs []tscPair

	// pending holds fully-owned loggers moved out of their ways during the
	// current sync epoch, same as tsclog.Object's pending, except entries
	// are only ever partially drained here: a WaitSynchronize(maxTSC) call
	// applies what's below maxTSC and keeps the rest for the next call.
	pending []tsclog.Logger

	// targetMaxTSC is read by the flush policy's FlushFinish, set just
	// before core.Synchronize is invoked from WaitSynchronize.
	targetMaxTSC uint64
}

// NewObject creates an MFS-style LoggedObject backed by cache and
// timestamped/CPU-identified by h. cache must be the Cache[tsclog.Logger]
// shared by every tsclog- and mfslog-backed object of this logger type.
func NewObject(h host.Host, cache *oplog.Cache[tsclog.Logger]) *Object {
	obj := &Object{
		host:  h,
		pairs: make([]tscPair, h.NumCPU()),
	}
	obj.core = oplog.NewObject[tsclog.Logger](cache, (*policy)(obj))

	return obj
}

// Push takes this CPU's way for o, reads the current timestamp, advertises
// it as this CPU's start_tsc, appends, then advertises the same timestamp
// as this CPU's end_tsc, all while the way lock is held, so pushers that
// share a CPU never interleave their start/end updates. The start/end pair
// brackets the window during which a WaitSynchronize call that observed
// this CPU "in flight" must keep waiting.
func (o *Object) Push(op tsclog.Op) {
	h := o.core.GetLogger()
	defer h.Release()

	pair := &o.pairs[o.host.CurrentCPU()]

	ts := o.host.ReadTimestamp()
	pair.updateStart(ts)
	h.Logger().PushAt(ts, op)
	pair.updateEnd(ts)
}

// PushWithTSC is Push's counterpart for operations with an externally
// determined linearization timestamp.
func (o *Object) PushWithTSC(op tsclog.TimestampedOp) {
	h := o.core.GetLogger()
	defer h.Release()

	pair := &o.pairs[o.host.CurrentCPU()]

	ts := op.Timestamp()
	pair.updateStart(ts)
	h.Logger().PushAt(ts, op)
	pair.updateEnd(ts)
}

// waitForInFlight busy-waits until every CPU's advertised (start_tsc,
// end_tsc) shows no operation in flight below waitTSC. A CPU found in
// flight is re-checked only after its sequence counter has visibly moved
// past the generation observed at the time of the check, so the wait
// tracks actual progress rather than polling blindly.
func (o *Object) waitForInFlight(waitTSC uint64) {
	for i := range o.pairs {
		pair := &o.pairs[i]

		for {
			gen := pair.seq.Snapshot()
			start, end := pair.start, pair.end

			if pair.seq.Retry(gen) {
				continue
			}

			if !inFlightBelow(start, end, waitTSC) {
				break
			}

			for pair.seq.Snapshot() == gen {
				runtime.Gosched()
			}
		}
	}
}

// WaitSynchronize waits for every CPU's in-flight operation below waitTSC
// to commit, gathers every CPU's pending logger exactly as a plain
// synchronize would, and then applies only the gathered (plus any
// previously deferred) entries with timestamp strictly less than waitTSC.
// Entries at or past waitTSC remain buffered in pending for the next call.
func (o *Object) WaitSynchronize(waitTSC uint64) *oplog.SyncGuard[tsclog.Logger] {
	o.waitForInFlight(waitTSC)

	(*policy)(o).targetMaxTSC = waitTSC

	return o.core.Synchronize()
}

// Discard tears o down without applying any cached or pending entries.
// Callers must guarantee no concurrent Push/WaitSynchronize calls remain.
func (o *Object) Discard() {
	o.pending = nil
	o.core.Discard()
}

// policy implements oplog.FlushPolicy[tsclog.Logger] for Object.
type policy Object

func (p *policy) FlushLogger(l *tsclog.Logger) {
	moved := *l
	*l = tsclog.Logger{}
	p.pending = append(p.pending, moved)
}

// FlushFinish applies entries below p.targetMaxTSC (set by WaitSynchronize
// immediately before the gather this FlushFinish concludes) and keeps
// whatever remains, per logger, for the next sync.
func (p *policy) FlushFinish() {
	if len(p.pending) == 0 {
		return
	}

	for i := range p.pending {
		p.pending[i].SortOps()
	}

	consumed := tsclog.MergeApplyBounded(p.pending, p.targetMaxTSC)

	kept := p.pending[:0]

	for i := range p.pending {
		p.pending[i].Advance(consumed[i])

		if p.pending[i].Len() > 0 {
			kept = append(kept, p.pending[i])
		}
	}

	p.pending = kept
}
