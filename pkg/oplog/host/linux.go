//go:build linux

package host

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Linux is a Host backed by real kernel facilities instead of an in-memory
// stand-in.
//
// CurrentCPU uses unix.SchedGetcpu, which reads the CPU the calling thread
// is presently scheduled on via the vDSO getcpu(2) call — a real affinity
// signal, unlike Simulated's goroutine hash. ReadTimestamp uses
// CLOCK_MONOTONIC_RAW, a hardware-derived monotonic clock unaffected by NTP
// slew, standing in for a serialized TSC read without resorting to cgo or
// assembly.
type Linux struct {
	numCPU int
}

// NewLinux returns a Linux host sized for numCPU logical CPUs.
func NewLinux(numCPU int) *Linux {
	if numCPU <= 0 {
		panic("host: NewLinux: numCPU must be positive")
	}

	return &Linux{numCPU: numCPU}
}

func (l *Linux) NumCPU() int { return l.numCPU }

func (l *Linux) CurrentCPU() int {
	cpu, err := unix.SchedGetcpu()
	if err != nil || cpu < 0 {
		return 0
	}

	if cpu >= l.numCPU {
		cpu %= l.numCPU
	}

	return cpu
}

func (l *Linux) ReadTimestamp() uint64 {
	var ts unix.Timespec

	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return fallbackClock.Add(1)
	}

	return uint64(ts.Sec)*1_000_000_000 + uint64(ts.Nsec)
}

func (l *Linux) Barrier() {}

var fallbackClock atomic.Uint64
