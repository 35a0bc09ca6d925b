package oplog

import (
	"sync/atomic"

	"github.com/oplog-project/oplog/pkg/oplog/host"
)

// DefaultCacheSlots is the fixed size of each per-CPU way table.
const DefaultCacheSlots = 4096

// Logger is the constraint the engine places on a caller-plugged logger
// type: none. On flush the engine hands a pointer to the way's logger to the
// FlushPolicy, which empties it; Discard clears it back to its zero value
// (see way.reset) — a named constraint just gives call sites a clearer type
// parameter name than a bare `any`. oplog/tsclog.Logger is the one concrete
// implementation this module ships.
type Logger any

// way is one slot in a per-CPU cache: an atomic tag identifying the
// LoggedObject currently cached here (or nil), a lock serializing access to
// both the tag and the embedded logger, and the logger itself.
//
// way.tag is read and written only while way.lock is held, so the atomic
// wrapper exists purely to let Cache.wayFor's *different* callers (the
// owning CPU doing a lookup, and a concurrent evictor on another CPU) see a
// consistent value without a data race — not to allow lock-free access.
type way[L Logger] struct {
	tag    atomic.Pointer[Object[L]]
	lock   SpinLock
	logger L
}

// reset clears the way's logger back to its zero value. Called with the
// way lock held by Discard, which drops the entries without flushing them.
// Eviction does not call it: there the flush policy empties the logger.
func (w *way[L]) reset() {
	var zero L

	w.logger = zero
}

// Cache is the fixed-size, hash-indexed per-CPU table of ways: one array of
// slots per CPU. Every distinct Logger type needs its own Cache, constructed
// once and shared by every Object[L] of that type — a type-parameterized
// value standing in for the per-CPU static storage a C implementation would
// key by logger type at compile time.
type Cache[L Logger] struct {
	host   host.Host
	slots  uint64
	perCPU [][]way[L]
}

// NewCache allocates a Cache sized for h.NumCPU() CPUs, each with `slots`
// ways. slots defaults to DefaultCacheSlots when <= 0.
func NewCache[L Logger](h host.Host, slots int) *Cache[L] {
	if slots <= 0 {
		slots = DefaultCacheSlots
	}

	n := h.NumCPU()
	perCPU := make([][]way[L], n)

	for i := range perCPU {
		perCPU[i] = make([]way[L], slots)
	}

	return &Cache[L]{host: h, slots: uint64(slots), perCPU: perCPU}
}

// wayFor returns the way that (cpu, identity) deterministically hashes to.
// identity is the object's address, scrambled so that objects allocated
// back-to-back — and therefore differing only in their low pointer bits —
// don't all collide on the same way.
func (c *Cache[L]) wayFor(cpu int, identity uintptr) *way[L] {
	idx := scramble(uint64(identity)) % c.slots

	return &c.perCPU[cpu][idx]
}

// scramble is the fmix64 finalizer from MurmurHash3: a handful of
// shift/xor/multiply rounds that turn a pointer value (whose low bits are
// usually zero from alignment, and whose high bits are usually identical
// across objects from the same allocator arena) into a value whose bits are
// all load-bearing for modulo reduction.
func scramble(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33

	return x
}
