package npss

import (
	"time"

	"github.com/bft-labs/npss/internal/aggregate"
)

// ProfilingSettings describes how the profile data was collected.
type ProfilingSettings struct {
	Name             string
	SamplingInterval time.Duration
	ThreadStates     bool
}

// CPUPreset returns the settings of a sampled CPU profiling session.
func CPUPreset() ProfilingSettings {
	return ProfilingSettings{
		Name:             "CPU",
		SamplingInterval: 10 * time.Millisecond,
		ThreadStates:     true,
	}
}

// LoadedSnapshot is an aggregated CPU snapshot packaged for consumers.
type LoadedSnapshot struct {
	CPU      *aggregate.Snapshot
	Settings ProfilingSettings

	// Metadata is reserved for consumers attaching their own data; the
	// reader always leaves it nil.
	Metadata map[string]string
}

func newLoadedSnapshot(cpu *aggregate.Snapshot) *LoadedSnapshot {
	return &LoadedSnapshot{CPU: cpu, Settings: CPUPreset()}
}
