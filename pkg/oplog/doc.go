// Package oplog provides the generic LoggedObject engine: a bounded
// per-CPU cache of in-flight loggers keyed by object identity, with
// eviction, deadlock avoidance, and global synchronization.
//
// oplog exists to let objects that are written often from many goroutines
// but read rarely avoid inter-CPU cache-line contention on every write: a
// writer's GetLogger call only ever touches state local to its own CPU's
// way, and a reader's Synchronize call is the only place cross-CPU state is
// gathered.
//
// # Basic usage
//
//	h := host.NewSimulated(runtime.GOMAXPROCS(0))
//	cache := oplog.NewCache[MyLogger](h, oplog.DefaultCacheSlots)
//	obj := oplog.NewObject[MyLogger](cache, myPolicy)
//
//	handle := obj.GetLogger()
//	handle.Logger().Record(...)
//	handle.Release()
//
//	guard := obj.Synchronize()
//	defer guard.Release()
//	// inspect materialized state here
//
// oplog itself is policy-free: it knows nothing about timestamps or merge
// order. oplog/tsclog and oplog/mfslog supply a Logger and FlushPolicy that
// give it TSC-ordered semantics.
package oplog
