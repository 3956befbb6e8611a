package metrics

import (
	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/metropolis"
)

// TotalEnergy returns H = -Σ s·neighborSum / 2 with J = 1. The factor 1/2
// removes the double count of each nearest-neighbor bond.
func TotalEnergy(lat *lattice.Lattice) float64 {
	n := lat.Size()
	sum := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum -= int(lat.At(i, j)) * lat.NeighborSum(i, j)
		}
	}
	return float64(sum) / 2
}

// EnergyPerSite returns TotalEnergy / L².
func EnergyPerSite(lat *lattice.Lattice) float64 {
	return TotalEnergy(lat) / float64(lat.Sites())
}

// Energy accumulates total energy after each sweep and reports the chain
// average per site.
type Energy struct {
	name    string
	sum     float64
	sites   int
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

// Observe adds the current total energy and returns it.
func (e *Energy) Observe(lat *lattice.Lattice, _ metropolis.Stats) float64 {
	te := TotalEnergy(lat)
	e.sum += te
	e.sites = lat.Sites()
	e.samples++
	return te
}

// Value returns sum / (samples · L²).
func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / (float64(e.samples) * float64(e.sites))
}

func (e *Energy) Samples() int { return e.samples }

func (e *Energy) Reset() {
	e.sum = 0
	e.sites = 0
	e.samples = 0
}
