package oplog

import "sync/atomic"

// CPUBitmap is a one-sided-clearing bitset: a bit can be *set* by any CPU
// without locks, but can only be *cleared* while the caller holds both the
// object's sync lock and the corresponding way's lock. The asymmetry is
// what lets GetLogger publish membership without ever taking the sync
// lock, while Synchronize can still observe a consistent "no unflushed
// entries" state by holding the sync lock alone.
//
// Bits are stored one per word to keep Set a single release-store with no
// read-modify-write: Set is only ever called by the CPU that owns the bit,
// while it holds the way lock under which the tag is made visible, so no
// stronger ordering is needed.
type CPUBitmap struct {
	bits []atomic.Bool
}

// NewCPUBitmap allocates a bitmap over numCPU bits, all initially clear.
func NewCPUBitmap(numCPU int) *CPUBitmap {
	return &CPUBitmap{bits: make([]atomic.Bool, numCPU)}
}

// Set publishes that cpu may hold unflushed entries. Callable without any
// lock.
func (b *CPUBitmap) Set(cpu int) {
	b.bits[cpu].Store(true)
}

// Clear retracts cpu's membership. Callers MUST hold both the owning
// object's sync lock and the way lock for (cpu, object) — see object.go.
func (b *CPUBitmap) Clear(cpu int) {
	b.bits[cpu].Store(false)
}

// IsSet reports whether cpu's bit is currently set.
func (b *CPUBitmap) IsSet(cpu int) bool {
	return b.bits[cpu].Load()
}

// Empty reports whether every bit is clear. Used by Synchronize's
// termination check: observing Empty while holding the sync lock means no
// unflushed entries exist for the object, since a writer can only set a
// bit while the object is not being synchronized against that CPU's way.
func (b *CPUBitmap) Empty() bool {
	for i := range b.bits {
		if b.bits[i].Load() {
			return false
		}
	}

	return true
}

// SetBits appends every currently-set CPU index to dst and returns the
// result, for synchronize()'s per-scan gather step.
func (b *CPUBitmap) SetBits(dst []int) []int {
	for i := range b.bits {
		if b.bits[i].Load() {
			dst = append(dst, i)
		}
	}

	return dst
}
