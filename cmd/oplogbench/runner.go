package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/oplog-project/oplog/pkg/oplog"
	"github.com/oplog-project/oplog/pkg/oplog/host"
	"github.com/oplog-project/oplog/pkg/oplog/mfslog"
	"github.com/oplog-project/oplog/pkg/oplog/tsclog"
)

// result is the JSON-serializable outcome of running a scenario, written
// to disk by the "run" command.
type result struct {
	Variant      string        `json:"variant"`
	NumCPU       int           `json:"num_cpu"`
	TotalPushed  int           `json:"total_pushed"`
	TotalApplied int64         `json:"total_applied"`
	PushDuration time.Duration `json:"push_duration_ns"`
	SyncDuration time.Duration `json:"sync_duration_ns"`
}

// runScenario drives sc against either LoggedObject variant and reports
// how long the concurrent push phase and the synchronize phase each took,
// plus how many of the pushed operations were actually applied.
func runScenario(sc scenario) result {
	h := host.NewSimulated(sc.NumCPU)
	totalPushed := sc.NumCPU * sc.PushersPerCPU * sc.OpsPerPusher

	var applied atomic.Int64

	op := tsclog.FuncOp{
		Name: "bench-op",
		Fn:   func() { applied.Add(1) },
	}

	res := result{Variant: sc.Variant, NumCPU: sc.NumCPU, TotalPushed: totalPushed}

	switch sc.Variant {
	case "mfs":
		cache := oplog.NewCache[tsclog.Logger](h, sc.CacheSlots)
		obj := mfslog.NewObject(h, cache)

		res.PushDuration = runPushers(sc, func() { obj.Push(op) })

		waitTSC := uint64(float64(totalPushed)*sc.WaitFraction) + 1

		start := time.Now()
		guard := obj.WaitSynchronize(waitTSC)
		res.SyncDuration = time.Since(start)
		guard.Release()
	default: // "tsc"
		cache := oplog.NewCache[tsclog.Logger](h, sc.CacheSlots)
		obj := tsclog.NewObject(h, cache)

		res.PushDuration = runPushers(sc, func() { obj.Push(op) })

		start := time.Now()
		guard := obj.Synchronize()
		res.SyncDuration = time.Since(start)
		guard.Release()
	}

	res.TotalApplied = applied.Load()

	return res
}

// runPushers fans out sc.NumCPU*sc.PushersPerCPU goroutines, each calling
// push sc.OpsPerPusher times, and returns how long the whole fan-out took
// to complete.
func runPushers(sc scenario, push func()) time.Duration {
	var wg sync.WaitGroup

	start := time.Now()

	for i := 0; i < sc.NumCPU*sc.PushersPerCPU; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < sc.OpsPerPusher; j++ {
				push()
			}
		}()
	}

	wg.Wait()

	return time.Since(start)
}
