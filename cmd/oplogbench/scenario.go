package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// scenario describes a synthetic workload to drive against the oplog
// engine: a number of simulated CPUs, a number of concurrent pushers per
// CPU, how many operations each pushes, and which LoggedObject variant and
// sync discipline to exercise.
type scenario struct {
	// Variant selects the LoggedObject flavor: "tsc" or "mfs".
	Variant string `json:"variant"`

	// NumCPU is the number of simulated CPUs to size the cache for.
	NumCPU int `json:"num_cpu"`

	// CacheSlots overrides the per-CPU way table size. Zero uses the
	// engine default.
	CacheSlots int `json:"cache_slots"`

	// PushersPerCPU is how many goroutines concurrently push through each
	// simulated CPU's share of the workload.
	PushersPerCPU int `json:"pushers_per_cpu"`

	// OpsPerPusher is how many operations each pusher goroutine pushes.
	OpsPerPusher int `json:"ops_per_pusher"`

	// WaitFraction, for the "mfs" variant only, is the fraction (0, 1] of
	// the observed maximum push timestamp to use as WaitSynchronize's
	// bound, letting a scenario exercise the bounded/partial-retention
	// path instead of always waiting for everything.
	WaitFraction float64 `json:"wait_fraction"`
}

func defaultScenario() scenario {
	return scenario{
		Variant:       "tsc",
		NumCPU:        4,
		CacheSlots:    0,
		PushersPerCPU: 4,
		OpsPerPusher:  1000,
		WaitFraction:  1.0,
	}
}

// loadScenario reads a JSONC (JSON-with-comments) scenario file, the way
// a human-edited config is expected to look, and decodes it over the
// defaults so a file only needs to mention what it's overriding.
func loadScenario(path string) (scenario, error) {
	sc := defaultScenario()

	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("reading scenario file: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return scenario{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	if err := json.Unmarshal(standardized, &sc); err != nil {
		return scenario{}, fmt.Errorf("invalid scenario JSON: %w", err)
	}

	if sc.Variant != "tsc" && sc.Variant != "mfs" {
		return scenario{}, fmt.Errorf("scenario: unknown variant %q (want \"tsc\" or \"mfs\")", sc.Variant)
	}

	if sc.NumCPU <= 0 {
		return scenario{}, fmt.Errorf("scenario: num_cpu must be positive, got %d", sc.NumCPU)
	}

	if sc.PushersPerCPU <= 0 {
		return scenario{}, fmt.Errorf("scenario: pushers_per_cpu must be positive, got %d", sc.PushersPerCPU)
	}

	if sc.OpsPerPusher <= 0 {
		return scenario{}, fmt.Errorf("scenario: ops_per_pusher must be positive, got %d", sc.OpsPerPusher)
	}

	if sc.WaitFraction <= 0 || sc.WaitFraction > 1 {
		return scenario{}, fmt.Errorf("scenario: wait_fraction must be in (0, 1], got %f", sc.WaitFraction)
	}

	return sc, nil
}
