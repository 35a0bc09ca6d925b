package tsclog_test

import (
	"io"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oplog-project/oplog/pkg/oplog"
	"github.com/oplog-project/oplog/pkg/oplog/host"
	"github.com/oplog-project/oplog/pkg/oplog/tsclog"
)

// pushRecord is the reference model's view of one push: the order it
// should appear in after a synchronize, independent of which CPU or way
// it happened to land on.
type pushRecord struct {
	TSC  uint64
	Name string
}

// Test_Synchronize_Matches_A_Reference_Global_Order_Model drives a batch of
// pushes with externally supplied, possibly colliding timestamps through a
// real Object, checks that the applied order never goes back in timestamp,
// and compares what was applied against a reference model that simply
// sorts every push by timestamp with no notion of per-CPU ways or caching
// at all. Divergence here means the engine's
// merge, not just its bookkeeping, has a bug a unit test on one function
// wouldn't surface.
func Test_Synchronize_Matches_A_Reference_Global_Order_Model(t *testing.T) {
	t.Parallel()

	const numPushes = 400

	rng := rand.New(rand.NewSource(42))

	pushes := make([]pushRecord, numPushes)
	for i := range pushes {
		pushes[i] = pushRecord{
			TSC:  uint64(rng.Intn(numPushes / 4)), // force collisions
			Name: strconv.Itoa(i),
		}
	}

	// Two pushes sharing a timestamp have no defined order relative to each
	// other (they're concurrent, unrelated goroutines), so the model and the
	// real run are compared as (TSC, Name)-ordered sequences: canonical for
	// diffing, not a claim the engine itself breaks ties by name.
	byTSCThenName := func(s []pushRecord) func(i, j int) bool {
		return func(i, j int) bool {
			if s[i].TSC != s[j].TSC {
				return s[i].TSC < s[j].TSC
			}

			return s[i].Name < s[j].Name
		}
	}

	model := make([]pushRecord, len(pushes))
	copy(model, pushes)
	sort.Slice(model, byTSCThenName(model))

	h := host.NewSimulated(8)
	cache := oplog.NewCache[tsclog.Logger](h, 32)
	obj := tsclog.NewObject(h, cache)

	var mu sync.Mutex

	var applied []pushRecord

	var wg sync.WaitGroup

	for _, p := range pushes {
		p := p

		wg.Add(1)

		go func() {
			defer wg.Done()

			obj.PushWithTSC(recordingTimestamped{
				ts: p.TSC,
				fn: func() {
					mu.Lock()
					applied = append(applied, p)
					mu.Unlock()
				},
			})
		}()
	}

	wg.Wait()

	guard := obj.Synchronize()
	guard.Release()

	if !sort.SliceIsSorted(applied, func(i, j int) bool { return applied[i].TSC < applied[j].TSC }) {
		t.Fatalf("operations were not applied in non-decreasing timestamp order")
	}

	sort.Slice(applied, byTSCThenName(applied))

	if diff := cmp.Diff(model, applied); diff != "" {
		t.Fatalf("applied order diverged from the reference model (-model +applied):\n%s", diff)
	}
}

type recordingTimestamped struct {
	ts uint64
	fn func()
}

func (r recordingTimestamped) Timestamp() uint64 { return r.ts }
func (r recordingTimestamped) Run()              { r.fn() }
func (r recordingTimestamped) Print(w io.Writer) { _, _ = io.WriteString(w, "recording") }
