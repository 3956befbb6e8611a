// Package lattice provides the spin configuration of a 2D Ising model on a
// square lattice with periodic (toroidal) boundary conditions.
//
// Every site holds exactly [Up] or [Down]; constructors and [Lattice.Set]
// reject anything else, so the invariant holds for the lattice's lifetime.
//
// # Indexing
//
// All accessors wrap indices with true mathematical modulo, so negative
// indices refer to the opposite edge:
//
//	l.At(-1, 0) == l.At(l.Size()-1, 0)
//
// # Thread Safety
//
// A Lattice is NOT safe for concurrent mutation. Each Markov chain owns its
// lattice exclusively.
package lattice
