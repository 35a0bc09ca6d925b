package oplog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oplog-project/oplog/pkg/oplog/host"
)

type recordingLogger struct {
	values []int
}

type recordingPolicy struct {
	mu       sync.Mutex
	flushed  []int // every value ever handed to FlushLogger, in order
	finishes int
}

func (p *recordingPolicy) FlushLogger(l *recordingLogger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.flushed = append(p.flushed, l.values...)
	*l = recordingLogger{}
}

func (p *recordingPolicy) FlushFinish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishes++
}

func Test_GetLogger_Returns_The_Same_Way_On_Repeated_Calls_From_One_CPU(t *testing.T) {
	t.Parallel()

	h := host.NewSimulated(1)
	cache := NewCache[recordingLogger](h, 16)
	obj := NewObject[recordingLogger](cache, &recordingPolicy{})

	h1 := obj.GetLogger()
	h1.Logger().values = append(h1.Logger().values, 1)
	h1.Release()

	h2 := obj.GetLogger()
	defer h2.Release()

	assert.Equal(t, []int{1}, h2.Logger().values, "a second GetLogger for the same object on the same CPU must see the first handle's writes")
}

func Test_GetLogger_Evicts_A_Different_Object_Sharing_The_Same_Way(t *testing.T) {
	t.Parallel()

	h := host.NewSimulated(1)
	cache := NewCache[recordingLogger](h, 1) // one slot: every identity collides

	policyA := &recordingPolicy{}
	objA := NewObject[recordingLogger](cache, policyA)

	policyB := &recordingPolicy{}
	objB := NewObject[recordingLogger](cache, policyB)

	ha := objA.GetLogger()
	ha.Logger().values = append(ha.Logger().values, 10, 20)
	ha.Release()

	// objB shares the only way; acquiring it must evict objA's entries
	// through objA's own policy before handing the way to objB.
	hb := objB.GetLogger()
	hb.Release()

	assert.Equal(t, []int{10, 20}, policyA.flushed, "evicting objA must flush its entries through its own policy")
	assert.Empty(t, policyB.flushed)
}

func Test_Synchronize_Gathers_Every_CPU_And_Calls_FlushFinish_Once(t *testing.T) {
	t.Parallel()

	const numCPU = 8

	h := host.NewSimulated(numCPU)
	cache := NewCache[recordingLogger](h, 64)

	policy := &recordingPolicy{}
	obj := NewObject[recordingLogger](cache, policy)

	var wg sync.WaitGroup

	for cpu := 0; cpu < numCPU; cpu++ {
		wg.Add(1)

		go func(v int) {
			defer wg.Done()

			hdl := obj.GetLogger()
			hdl.Logger().values = append(hdl.Logger().values, v)
			hdl.Release()
		}(cpu)
	}

	wg.Wait()

	guard := obj.Synchronize()
	defer guard.Release()

	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, policy.flushed)
	assert.Equal(t, 1, policy.finishes)
	assert.True(t, obj.cpus.Empty(), "every CPU bit must be cleared once synchronize completes")
}

func Test_Synchronize_With_No_Writers_Still_Calls_FlushFinish(t *testing.T) {
	t.Parallel()

	h := host.NewSimulated(2)
	cache := NewCache[recordingLogger](h, 16)
	policy := &recordingPolicy{}
	obj := NewObject[recordingLogger](cache, policy)

	guard := obj.Synchronize()
	guard.Release()

	assert.Equal(t, 1, policy.finishes)
	assert.Empty(t, policy.flushed)
}

func Test_Discard_Resets_Cached_Loggers_Without_Flushing(t *testing.T) {
	t.Parallel()

	h := host.NewSimulated(1)
	cache := NewCache[recordingLogger](h, 16)
	policy := &recordingPolicy{}
	obj := NewObject[recordingLogger](cache, policy)

	hdl := obj.GetLogger()
	hdl.Logger().values = append(hdl.Logger().values, 99)
	hdl.Release()

	obj.Discard()

	assert.Empty(t, policy.flushed, "discard must not run the flush policy on still-cached entries")
	assert.True(t, obj.cpus.Empty())

	// The way must be free for a different object to claim immediately.
	other := NewObject[recordingLogger](cache, &recordingPolicy{})
	h2 := other.GetLogger()
	defer h2.Release()

	assert.Empty(t, h2.Logger().values)
}

// Test_GetLogger_Does_Not_Deadlock_Against_A_Concurrent_Synchronize exercises
// the lock-order inversion GetLogger's eviction path must resolve: a
// Synchronize call holds the sync lock and is working its way around every
// CPU's way lock, while a concurrent GetLogger eviction on some other
// object holds a way lock and wants the same sync lock. If GetLogger
// blocked on the sync lock instead of backing off, this test would hang.
func Test_GetLogger_Does_Not_Deadlock_Against_A_Concurrent_Synchronize(t *testing.T) {
	t.Parallel()

	const numCPU = 4

	h := host.NewSimulated(numCPU)
	cache := NewCache[recordingLogger](h, 1) // force collisions across objects

	victim := NewObject[recordingLogger](cache, &recordingPolicy{})

	// Populate every CPU's way with an entry for victim. A simulated CPU is
	// fixed per goroutine, so push from fresh goroutines until victim's
	// bitmap shows every CPU.
	for len(victim.cpus.SetBits(nil)) < numCPU {
		pushed := make(chan struct{})

		go func() {
			defer close(pushed)

			hdl := victim.GetLogger()
			hdl.Logger().values = append(hdl.Logger().values, 1)
			hdl.Release()
		}()

		<-pushed
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		guard := victim.Synchronize()
		guard.Release()
	}()

	// Every one of these wants the exact ways victim currently occupies
	// and will attempt to evict victim, racing the Synchronize above.
	var wg sync.WaitGroup

	for cpu := 0; cpu < numCPU; cpu++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			other := NewObject[recordingLogger](cache, &recordingPolicy{})
			hdl := other.GetLogger()
			hdl.Release()
		}()
	}

	evictDone := make(chan struct{})

	go func() {
		wg.Wait()
		close(evictDone)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Synchronize did not complete: possible deadlock")
	}

	select {
	case <-evictDone:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent evictions did not complete: possible deadlock")
	}
}
