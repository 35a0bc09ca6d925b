package oplog

import "unsafe"

// FlushPolicy is the strategy a LoggedObject plugs into the engine: what to
// do with a way's logger when it must give it up (FlushLogger), and
// what to do once every CPU's entries for an epoch have been gathered
// (FlushFinish). oplog/tsclog and oplog/mfslog each provide one.
type FlushPolicy[L Logger] interface {
	// FlushLogger consumes or re-homes l's entries and leaves it reset to
	// its initial state. Called with the way's lock held and, for
	// eviction, the owning object's sync lock held too — never
	// concurrently for the same object.
	FlushLogger(l *L)

	// FlushFinish is called once per Synchronize, after a consistent
	// gather (every CPU bit observed clear in one scan), to finalize
	// observable state.
	FlushFinish()
}

// Object is the generic LoggedObject core: the unit log entries are
// attributed to. It owns a CPU-membership bitmap and a sync
// lock, and defers to a FlushPolicy for everything domain-specific.
type Object[L Logger] struct {
	cache  *Cache[L]
	policy FlushPolicy[L]
	cpus   *CPUBitmap
	syncMu SpinLock
}

// NewObject creates a LoggedObject backed by cache and governed by policy.
// cache must be the same Cache[L] instance shared by every other Object[L]
// of this logger type — see Cache's doc comment.
func NewObject[L Logger](cache *Cache[L], policy FlushPolicy[L]) *Object[L] {
	return &Object[L]{
		cache:  cache,
		policy: policy,
		cpus:   NewCPUBitmap(len(cache.perCPU)),
	}
}

func (o *Object[L]) identity() uintptr {
	return uintptr(unsafe.Pointer(o))
}

// Handle is the lock-scoped accessor GetLogger returns. It must not outlive
// the call that acquired it; Release (typically deferred) drops the way
// lock it holds.
type Handle[L Logger] struct {
	way *way[L]
}

// Logger returns a pointer to the cached Logger instance. Valid only until
// Release is called.
func (h Handle[L]) Logger() *L {
	return &h.way.logger
}

// Release drops the way lock the handle holds. Safe to call exactly once.
func (h Handle[L]) Release() {
	h.way.lock.Unlock()
}

// GetLogger acquires this CPU's way for o, evicting whatever object
// currently occupies it if necessary, and
// return a handle bundling the held way lock with the cached Logger.
func (o *Object[L]) GetLogger() Handle[L] {
	cpu := o.cache.host.CurrentCPU()
	id := o.identity()

	for {
		w := o.cache.wayFor(cpu, id)
		w.lock.Lock()

		tag := w.tag.Load()
		if tag == o {
			o.cpus.Set(cpu)

			return Handle[L]{way: w}
		}

		if tag != nil {
			// Lock order here is way lock -> sync lock, the inverse of
			// Synchronize's sync lock -> way lock. TryLock (rather than
			// Lock) resolves the inversion one-sidedly: if tag's
			// Synchronize already holds its sync lock and is working
			// its way around to this exact way, we must not block it,
			// so we back off and restart instead. This is always safe
			// because GetLogger has produced no observable effect yet.
			if !tag.syncMu.TryLock() {
				w.lock.Unlock()

				continue
			}

			tag.policy.FlushLogger(&w.logger)
			tag.cpus.Clear(cpu)
			tag.syncMu.Unlock()
		}

		w.tag.Store(o)
		o.cpus.Set(cpu)

		return Handle[L]{way: w}
	}
}

// SyncGuard is returned by Synchronize; it holds the object's sync lock for
// as long as the caller wants to observe the post-flush state. Release
// (typically deferred) drops it.
type SyncGuard[L Logger] struct {
	obj *Object[L]
}

// Release drops the sync lock. Safe to call exactly once.
func (g *SyncGuard[L]) Release() {
	g.obj.syncMu.Unlock()
}

// Synchronize drains every CPU's cached logger for o and finalizes the
// result, returning a guard that holds
// o's sync lock for the duration the caller needs to inspect materialized
// state.
func (o *Object[L]) Synchronize() *SyncGuard[L] {
	o.syncMu.Lock()

	id := o.identity()

	var setCPUs []int

	for {
		setCPUs = o.cpus.SetBits(setCPUs[:0])
		if len(setCPUs) == 0 {
			break
		}

		for _, cpu := range setCPUs {
			w := o.cache.wayFor(cpu, id)
			w.lock.Lock()

			if w.tag.Load() != o {
				w.lock.Unlock()
				panic("oplog: Synchronize: way tag does not match syncing object")
			}

			o.policy.FlushLogger(&w.logger)
			o.cpus.Clear(cpu)
			w.lock.Unlock()
		}

		// A bit set by a concurrent writer after our scan above is still
		// correctly observed on the next loop iteration; the barrier just
		// ensures this CPU doesn't keep re-reading a stale cached view of
		// the bitmap words across iterations.
		o.cache.host.Barrier()
	}

	o.policy.FlushFinish()

	return &SyncGuard[L]{obj: o}
}

// Discard tears o down without applying any of its still-cached entries:
// walk every CPU still present in the membership bitmap (under the sync
// lock) and reset — without flushing — each way's logger. Callers must
// guarantee no concurrent GetLogger/
// Synchronize calls for o are in flight; Discard does not itself provide
// that guarantee.
func (o *Object[L]) Discard() {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()

	id := o.identity()

	var setCPUs []int

	setCPUs = o.cpus.SetBits(setCPUs)
	for _, cpu := range setCPUs {
		w := o.cache.wayFor(cpu, id)
		w.lock.Lock()

		if w.tag.Load() == o {
			w.reset()
			w.tag.Store(nil)
		}

		o.cpus.Clear(cpu)
		w.lock.Unlock()
	}
}
