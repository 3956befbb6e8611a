// Package metropolis implements single-spin-flip Metropolis-Hastings updates
// for the 2D Ising model with coupling J = 1.
//
// Each trial picks a site uniformly at random (with repetition, not a scan),
// proposes flipping it and accepts with probability min(1, exp(-beta·ΔE)).
// Uniform site selection together with this rule satisfies detailed balance
// for the Boltzmann distribution at inverse temperature beta.
package metropolis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/ising/internal/lattice"
)

// ErrNegativeBeta indicates an inverse temperature below zero or NaN.
var ErrNegativeBeta = errors.New("metropolis: beta must be >= 0")

// Source supplies uniform site indices and acceptance draws.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Stats counts trial outcomes.
type Stats struct {
	Trials         int
	Accepted       int
	Uphill         int // trials with ΔE > 0
	UphillAccepted int
}

// AcceptanceRate returns Accepted/Trials, or 0 before any trial.
func (s Stats) AcceptanceRate() float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Trials)
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Trials += o.Trials
	s.Accepted += o.Accepted
	s.Uphill += o.Uphill
	s.UphillAccepted += o.UphillAccepted
}

// DeltaE returns the energy change of flipping the spin at (i, j).
func DeltaE(lat *lattice.Lattice, i, j int) int {
	return 2 * int(lat.At(i, j)) * lat.NeighborSum(i, j)
}

// AcceptProbability is the Metropolis acceptance probability for an energy
// change dE at inverse temperature beta. Large beta·dE underflows to 0.
func AcceptProbability(beta float64, dE int) float64 {
	if dE <= 0 {
		return 1
	}
	return math.Exp(-beta * float64(dE))
}

// Updater performs sweeps at a fixed inverse temperature.
type Updater struct {
	beta float64
	src  Source
	// uphill[k] caches exp(-beta·4k); ΔE on a square lattice is a multiple
	// of 4 in [-8, 8], so k is 1 or 2 for uphill moves.
	uphill [3]float64
}

// New returns an Updater drawing from src. beta may be +Inf, in which case
// uphill moves are never accepted.
func New(beta float64, src Source) (*Updater, error) {
	if math.IsNaN(beta) || beta < 0 {
		return nil, fmt.Errorf("%w, got %v", ErrNegativeBeta, beta)
	}
	u := &Updater{beta: beta, src: src}
	for k := 1; k < len(u.uphill); k++ {
		u.uphill[k] = AcceptProbability(beta, 4*k)
	}
	return u, nil
}

// Beta returns the inverse temperature.
func (u *Updater) Beta() float64 { return u.beta }

// Trial proposes one single-spin flip at a uniformly drawn site and applies
// it if accepted.
func (u *Updater) Trial(lat *lattice.Lattice) (accepted bool, dE int) {
	n := lat.Size()
	i := u.src.Intn(n)
	j := u.src.Intn(n)

	dE = DeltaE(lat, i, j)
	if dE <= 0 {
		lat.Flip(i, j)
		return true, dE
	}
	if u.src.Float64() < u.uphill[dE/4] {
		lat.Flip(i, j)
		return true, dE
	}
	return false, dE
}

// Sweep performs exactly L² trials on lat, mutating it in place.
func (u *Updater) Sweep(lat *lattice.Lattice) Stats {
	var st Stats
	trials := lat.Sites()
	for t := 0; t < trials; t++ {
		ok, dE := u.Trial(lat)
		st.Trials++
		if dE > 0 {
			st.Uphill++
			if ok {
				st.UphillAccepted++
			}
		}
		if ok {
			st.Accepted++
		}
	}
	return st
}

// Sweep runs one sweep on lat at inverse temperature beta.
func Sweep(lat *lattice.Lattice, beta float64, src Source) (Stats, error) {
	u, err := New(beta, src)
	if err != nil {
		return Stats{}, err
	}
	return u.Sweep(lat), nil
}
