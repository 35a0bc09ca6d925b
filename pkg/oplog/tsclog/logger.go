package tsclog

import (
	"fmt"
	"io"
	"sort"
)

// Op is a type-erased, deferred operation: a runnable closure paired with
// its own print capability, so a logger can be debug-dumped without the
// caller threading formatting logic back through the engine.
type Op interface {
	Run()
	Print(w io.Writer)
}

// TimestampedOp is an Op whose linearization timestamp was determined
// externally by the caller, for use with Object.PushWithTSC.
type TimestampedOp interface {
	Op
	Timestamp() uint64
}

// FuncOp adapts a plain closure to Op, for callers who don't want to define
// a named type per operation kind. It fits inline (no extra heap
// allocation beyond the closure itself).
type FuncOp struct {
	Name string
	Fn   func()
}

func (f FuncOp) Run() { f.Fn() }

func (f FuncOp) Print(w io.Writer) { fmt.Fprint(w, f.Name) }

type entry struct {
	tsc uint64
	op  Op
}

// Logger is an ordered sequence of (timestamp, closure) pairs. It is
// default-constructible, movable by value, and is
// NOT safe for concurrent use on its own — every caller reaches it through
// an oplog.Handle, which holds the way lock that makes access exclusive.
type Logger struct {
	entries []entry
}

// Reset drops all entries, returning the logger to its initial state.
func (l *Logger) Reset() {
	l.entries = nil
}

// push appends (tsc, op). Called by Object.Push/PushWithTSC while the
// caller's way lock (via oplog.Handle) is held.
func (l *Logger) push(tsc uint64, op Op) {
	l.entries = append(l.entries, entry{tsc: tsc, op: op})
}

// PushAt appends (tsc, op) directly. Exported for composed LoggedObject
// variants outside this package (oplog/mfslog) that already hold a way
// lock via an oplog.Handle and have computed the timestamp themselves.
func (l *Logger) PushAt(tsc uint64, op Op) {
	l.push(tsc, op)
}

// Advance drops the first n (already-applied) entries, keeping the rest
// for a future sync. Used by oplog/mfslog's bounded flush_finish_max_timestamp
// to retain entries at or past the wait bound.
func (l *Logger) Advance(n int) {
	if n <= 0 {
		return
	}

	l.entries = append(l.entries[:0], l.entries[n:]...)
}

// SortOps stably sorts entries by timestamp, preserving push order among
// entries with equal timestamps.
func (l *Logger) SortOps() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].tsc < l.entries[j].tsc
	})
}

// OpsBefore returns the number of entries with timestamp strictly less
// than maxTSC, assuming SortOps has already been called. Entries at index
// [0, n) are "before"; entries at [n, Len()) are not.
func (l *Logger) OpsBefore(maxTSC uint64) int {
	return sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].tsc >= maxTSC
	})
}

// Len returns the number of buffered entries.
func (l *Logger) Len() int {
	return len(l.entries)
}

// PrintOps writes a debug dump of every entry in current buffer order: push
// order, or timestamp order once SortOps has run.
func (l *Logger) PrintOps(w io.Writer) {
	for _, e := range l.entries {
		fmt.Fprintf(w, "tsc=%d op=", e.tsc)
		e.op.Print(w)
		fmt.Fprintln(w)
	}
}
