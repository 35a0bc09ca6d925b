package tsclog

import "container/heap"

// mergeCursor is one position in the k-way merge: the index of the pending
// logger it reads from, and the next unread position within that logger's
// (already sorted) entries.
type mergeCursor struct {
	tsc       uint64
	loggerIdx int
	pos       int
}

// mergeHeap is a min-heap of mergeCursors ordered by timestamp, with ties
// broken by loggerIdx. Only cursors for non-empty loggers are ever pushed;
// seeding the heap with a cursor for every logger index, including empty
// ones, would let Pop return a bogus zero-value entry for an empty logger.
type mergeHeap []mergeCursor

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if h[i].tsc != h[j].tsc {
		return h[i].tsc < h[j].tsc
	}

	return h[i].loggerIdx < h[j].loggerIdx
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(mergeCursor)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// newMergeHeap seeds a heap with one cursor per non-empty logger, each
// positioned at its own first (smallest, since SortOps has run) entry.
func newMergeHeap(loggers []Logger) *mergeHeap {
	h := &mergeHeap{}
	heap.Init(h)

	for i := range loggers {
		if loggers[i].Len() > 0 {
			heap.Push(h, mergeCursor{tsc: loggers[i].entries[0].tsc, loggerIdx: i, pos: 0})
		}
	}

	return h
}

// MergeApply runs every entry across loggers, in ascending timestamp order
// with ties broken by loggerIdx (which, since loggers are gathered from
// CPUs in bitmap-scan order, yields a deterministic total order even among
// same-timestamp entries from different CPUs).
func MergeApply(loggers []Logger) {
	h := newMergeHeap(loggers)

	for h.Len() > 0 {
		c := heap.Pop(h).(mergeCursor)

		l := &loggers[c.loggerIdx]
		l.entries[c.pos].op.Run()

		if next := c.pos + 1; next < l.Len() {
			heap.Push(h, mergeCursor{tsc: l.entries[next].tsc, loggerIdx: c.loggerIdx, pos: next})
		}
	}
}

// MergeApplyBounded runs every entry with timestamp strictly less than
// maxTSC, in ascending order, and returns, per logger index, how many
// leading entries were consumed. Because the heap always pops the globally
// smallest available timestamp, the instant a popped cursor's timestamp is
// >= maxTSC every other cursor's remaining entries must be too (they are
// each >= their own front, and this cursor's front was the minimum), so the
// merge can stop immediately rather than draining every logger.
func MergeApplyBounded(loggers []Logger, maxTSC uint64) (consumed []int) {
	consumed = make([]int, len(loggers))
	h := newMergeHeap(loggers)

	for h.Len() > 0 {
		c := heap.Pop(h).(mergeCursor)
		if c.tsc >= maxTSC {
			return consumed
		}

		l := &loggers[c.loggerIdx]
		l.entries[c.pos].op.Run()
		consumed[c.loggerIdx] = c.pos + 1

		if next := c.pos + 1; next < l.Len() {
			heap.Push(h, mergeCursor{tsc: l.entries[next].tsc, loggerIdx: c.loggerIdx, pos: next})
		}
	}

	return consumed
}
