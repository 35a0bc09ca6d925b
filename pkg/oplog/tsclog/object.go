package tsclog

import (
	"github.com/oplog-project/oplog/pkg/oplog"
	"github.com/oplog-project/oplog/pkg/oplog/host"
)

// Object is a LoggedObject whose flush policy collects every CPU's pending
// Logger and, once gathered, k-way merges them in TSC order and runs the
// resulting sequence.
type Object struct {
	host host.Host
	core *oplog.Object[Logger]

	// pending holds fully-owned loggers moved out of their ways during
	// the current sync epoch. Only ever touched while this object's sync
	// lock is held — by the Synchronize caller itself, or by a concurrent
	// GetLogger evictor that acquired the lock via TryLock (see
	// oplog.Object.GetLogger) — so no additional lock is needed here.
	pending []Logger
}

// NewObject creates a TscLoggedObject backed by cache and timestamped by h.
// cache must be shared by every Object using this Logger type (see
// oplog.Cache's doc comment).
func NewObject(h host.Host, cache *oplog.Cache[Logger]) *Object {
	obj := &Object{host: h}
	obj.core = oplog.NewObject[Logger](cache, (*policy)(obj))

	return obj
}

// Push reads the current timestamp from the host and records op. The read
// happens while this CPU's way lock is held (GetLogger/handle.Release
// straddle it), so a subsequent lock release implies a happens-before on
// the timestamp for any reader that later acquires the same way.
func (o *Object) Push(op Op) {
	h := o.core.GetLogger()
	defer h.Release()

	h.Logger().push(o.host.ReadTimestamp(), op)
}

// PushWithTSC records op at its own externally-determined linearization
// timestamp.
func (o *Object) PushWithTSC(op TimestampedOp) {
	h := o.core.GetLogger()
	defer h.Release()

	h.Logger().push(op.Timestamp(), op)
}

// Synchronize drains every CPU's logger for o, applies every entry in
// global TSC order, and returns a guard holding o's sync lock.
func (o *Object) Synchronize() *oplog.SyncGuard[Logger] {
	return o.core.Synchronize()
}

// Discard tears o down: pending is cleared first (without applying), then
// every CPU's still-cached logger is reset, also without applying. Callers
// must guarantee no concurrent writers remain.
func (o *Object) Discard() {
	o.pending = nil
	o.core.Discard()
}

// policy implements oplog.FlushPolicy[Logger] for Object. It's defined as
// a distinct named type over *Object (rather than a separate struct holding
// a back-pointer) so construction in NewObject needs no second allocation.
type policy Object

func (p *policy) FlushLogger(l *Logger) {
	moved := *l
	*l = Logger{}
	p.pending = append(p.pending, moved)
}

func (p *policy) FlushFinish() {
	if len(p.pending) == 0 {
		return
	}

	for i := range p.pending {
		p.pending[i].SortOps()
	}

	MergeApply(p.pending)

	p.pending = p.pending[:0]
}
