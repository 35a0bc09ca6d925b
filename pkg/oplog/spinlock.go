package oplog

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is the blocking spinlock primitive used for way locks and the
// object-level sync lock. A plain sync.Mutex would work functionally, but
// it parks the goroutine on contention; a spinlock better reflects the short,
// bounded-duration critical sections (a handful of slice/struct writes)
// that every engine critical section actually is.
type SpinLock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired, yielding the processor after every
// few failed attempts so a contended lock doesn't starve the goroutine that's holding
// it (Go, unlike a kernel with preemption-disabled CPUs, can migrate and
// preempt the holder at any time).
func (l *SpinLock) Lock() {
	for spins := 0; !l.held.CompareAndSwap(false, true); spins++ {
		if spins > 16 {
			runtime.Gosched()

			spins = 0
		}
	}
}

// TryLock attempts to acquire the lock without blocking. Used by
// GetLogger's eviction path, which must never block on the sync lock of
// the object it is evicting (see object.go's lock-ordering discussion).
func (l *SpinLock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlock of an unheld lock is a programming
// error and panics, the same way the engine treats every other protocol
// violation as fatal rather than silently tolerated.
func (l *SpinLock) Unlock() {
	if !l.held.CompareAndSwap(true, false) {
		panic("oplog: SpinLock: unlock of unheld lock")
	}
}
