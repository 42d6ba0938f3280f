// Package metrics collects block propagation timings. Reading the samples
// clears them so every read reports the interval since the previous read.
package metrics

import (
	"sync"
	"time"
)

// Set of sample names recorded while mining and propagating a block.
const (
	ChainSynced      = "chainSyncedTime"
	BlockMined       = "blockMinedTime"
	BlockPropagation = "blockPropagationTime"
)

// Metrics holds timing samples in milliseconds keyed by name.
type Metrics struct {
	mu      sync.Mutex
	samples map[string][]float64
}

// New constructs an empty set of metrics.
func New() *Metrics {
	return &Metrics{
		samples: make(map[string][]float64),
	}
}

// Since records the milliseconds elapsed since start under the name.
func (m *Metrics) Since(name string, start time.Time) {
	m.Record(name, time.Since(start))
}

// Record records the duration in milliseconds under the name.
func (m *Metrics) Record(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples[name] = append(m.samples[name], float64(d)/float64(time.Millisecond))
}

// Drain returns the average and count of every sample set, keyed as
// <name>_avg and <name>_count, and clears the samples.
func (m *Metrics) Drain() map[string]float64 {
	m.mu.Lock()
	samples := m.samples
	m.samples = make(map[string][]float64)
	m.mu.Unlock()

	report := make(map[string]float64, len(samples)*2)
	for name, values := range samples {
		var sum float64
		for _, v := range values {
			sum += v
		}

		report[name+"_avg"] = sum / float64(len(values))
		report[name+"_count"] = float64(len(values))
	}

	return report
}
