package lattice

import (
	"errors"
	"fmt"
	"strings"
)

// Spin is the state of a single site, always Up or Down.
type Spin int8

const (
	Up   Spin = 1
	Down Spin = -1
)

// Flipped returns the opposite spin.
func (s Spin) Flipped() Spin { return -s }

func (s Spin) valid() bool { return s == Up || s == Down }

var (
	// ErrInvalidSize indicates a side length below 1.
	ErrInvalidSize = errors.New("lattice: side length must be at least 1")

	// ErrInvalidSpin indicates a cell value other than +1 or -1.
	ErrInvalidSpin = errors.New("lattice: spin must be +1 or -1")

	// ErrNotSquare indicates rows of unequal length or a non-square shape.
	ErrNotSquare = errors.New("lattice: rows must form a square matrix")
)

// Source is the random source used to populate a lattice.
type Source interface {
	Intn(n int) int
}

// Lattice is an L×L grid of spins with periodic boundaries, stored row-major.
type Lattice struct {
	size  int
	spins []Spin
}

// Random returns a lattice where each site is independently Up or Down with
// probability 1/2.
func Random(size int, src Source) (*Lattice, error) {
	l, err := alloc(size)
	if err != nil {
		return nil, err
	}
	for k := range l.spins {
		if src.Intn(2) == 0 {
			l.spins[k] = Down
		} else {
			l.spins[k] = Up
		}
	}
	return l, nil
}

// Uniform returns a lattice with every site set to s.
func Uniform(size int, s Spin) (*Lattice, error) {
	if !s.valid() {
		return nil, ErrInvalidSpin
	}
	l, err := alloc(size)
	if err != nil {
		return nil, err
	}
	for k := range l.spins {
		l.spins[k] = s
	}
	return l, nil
}

// FromRows builds a lattice from an explicit square matrix of ±1 values.
func FromRows(rows [][]int8) (*Lattice, error) {
	l, err := alloc(len(rows))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != l.size {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), l.size, ErrNotSquare)
		}
		for j, v := range row {
			s := Spin(v)
			if !s.valid() {
				return nil, fmt.Errorf("cell (%d,%d)=%d: %w", i, j, v, ErrInvalidSpin)
			}
			l.spins[i*l.size+j] = s
		}
	}
	return l, nil
}

func alloc(size int) (*Lattice, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, size)
	}
	return &Lattice{size: size, spins: make([]Spin, size*size)}, nil
}

// Size returns the side length L.
func (l *Lattice) Size() int { return l.size }

// Sites returns L².
func (l *Lattice) Sites() int { return len(l.spins) }

// Wrap maps any integer index onto [0, L) with true modulo semantics.
func (l *Lattice) Wrap(i int) int {
	return (i%l.size + l.size) % l.size
}

func (l *Lattice) index(i, j int) int {
	return l.Wrap(i)*l.size + l.Wrap(j)
}

// At returns the spin at (i, j). Indices wrap around the torus.
func (l *Lattice) At(i, j int) Spin {
	return l.spins[l.index(i, j)]
}

// Set writes s at (i, j). It panics if s is not Up or Down.
func (l *Lattice) Set(i, j int, s Spin) {
	if !s.valid() {
		panic(fmt.Sprintf("lattice: invalid spin %d at (%d,%d)", s, i, j))
	}
	l.spins[l.index(i, j)] = s
}

// Flip negates the spin at (i, j).
func (l *Lattice) Flip(i, j int) {
	k := l.index(i, j)
	l.spins[k] = l.spins[k].Flipped()
}

// FlipAll negates every spin.
func (l *Lattice) FlipAll() {
	for k, s := range l.spins {
		l.spins[k] = s.Flipped()
	}
}

// NeighborSum returns the sum of the four periodic nearest neighbors of
// (i, j). On L = 1 every neighbor is the site itself; on L = 2 the up/down
// and left/right neighbors coincide and are counted twice.
func (l *Lattice) NeighborSum(i, j int) int {
	return int(l.At(i+1, j)) + int(l.At(i-1, j)) + int(l.At(i, j+1)) + int(l.At(i, j-1))
}

// Clone returns an independent copy.
func (l *Lattice) Clone() *Lattice {
	c := &Lattice{size: l.size, spins: make([]Spin, len(l.spins))}
	copy(c.spins, l.spins)
	return c
}

// String renders the lattice as rows of '+' and '-'.
func (l *Lattice) String() string {
	var b strings.Builder
	b.Grow(l.size * (l.size + 1))
	for i := 0; i < l.size; i++ {
		for j := 0; j < l.size; j++ {
			if l.spins[i*l.size+j] == Up {
				b.WriteByte('+')
			} else {
				b.WriteByte('-')
			}
		}
		if i < l.size-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
