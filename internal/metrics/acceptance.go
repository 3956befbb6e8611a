package metrics

import (
	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/metropolis"
)

// Acceptance reports the fraction of proposed flips accepted over a chain.
type Acceptance struct {
	name  string
	stats metropolis.Stats
}

func NewAcceptance() *Acceptance {
	return &Acceptance{name: "acceptance"}
}

func (a *Acceptance) Name() string {
	return a.name
}

func (a *Acceptance) Observe(_ *lattice.Lattice, st metropolis.Stats) float64 {
	a.stats.Add(st)
	return st.AcceptanceRate()
}

func (a *Acceptance) Value() float64 {
	return a.stats.AcceptanceRate()
}

func (a *Acceptance) Reset() {
	a.stats = metropolis.Stats{}
}

// UphillAcceptance reports the fraction of energy-raising proposals that were
// accepted. It is 1 at beta = 0 and tends to 0 as beta grows.
type UphillAcceptance struct {
	name     string
	uphill   int
	accepted int
}

func NewUphillAcceptance() *UphillAcceptance {
	return &UphillAcceptance{name: "uphill_acceptance"}
}

func (u *UphillAcceptance) Name() string {
	return u.name
}

func (u *UphillAcceptance) Observe(_ *lattice.Lattice, st metropolis.Stats) float64 {
	u.uphill += st.Uphill
	u.accepted += st.UphillAccepted
	if st.Uphill == 0 {
		return 0
	}
	return float64(st.UphillAccepted) / float64(st.Uphill)
}

func (u *UphillAcceptance) Value() float64 {
	if u.uphill == 0 {
		return 0
	}
	return float64(u.accepted) / float64(u.uphill)
}

func (u *UphillAcceptance) Reset() {
	u.uphill = 0
	u.accepted = 0
}
