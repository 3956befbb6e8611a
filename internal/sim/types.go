package sim

import (
	"time"

	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/metropolis"
)

// Metric accumulates an observable over one chain. Observe is called after
// every sweep with that sweep's trial statistics.
type Metric interface {
	Name() string
	Observe(lat *lattice.Lattice, st metropolis.Stats) float64
	Value() float64
	Reset()
}

// MetricFactory creates a fresh Metric for each chain.
type MetricFactory func() Metric

// Observer is notified as the sweep driver moves through its chains.
// Implementations must not retain lat beyond the call.
type Observer interface {
	OnChainStart(k int, temperature float64)
	OnSweep(k, sweep int, lat *lattice.Lattice, energy float64)
	OnChainDone(k int, p Point)
}

type Config struct {
	Size    int   // lattice side length L
	Sweeps  int   // sweeps per chain
	Seed    int64 // run seed; chain k uses StreamSeed(Seed, k)
	Workers int   // chains run concurrently; <= 1 is sequential
}

func DefaultConfig() Config {
	return Config{
		Size:    10,
		Sweeps:  10000,
		Workers: 1,
	}
}

// Point is the outcome of one temperature's chain.
type Point struct {
	Temperature float64            `json:"temperature"`
	Beta        float64            `json:"beta"`
	Energy      float64            `json:"energy"` // mean energy per site
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

type Result struct {
	Points  []Point
	Size    int
	Sweeps  int
	Seed    int64
	Elapsed time.Duration
}

// Energies returns the mean energy per site, index-aligned with the schedule.
func (r *Result) Energies() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Energy
	}
	return out
}

// Temperatures returns the schedule the result was produced from.
func (r *Result) Temperatures() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Temperature
	}
	return out
}

// MetricSeries returns the named metric for every point, 0 where absent.
func (r *Result) MetricSeries(name string) []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Metrics[name]
	}
	return out
}
