// Package sim drives Metropolis Markov chains across a temperature schedule.
//
// The package composes the lattice, the Metropolis updater and the energy
// estimator into a temperature sweep:
//
//   - [Simulator]: runs one chain per temperature and reports the mean
//     energy per site
//   - [Config]: lattice size, sweeps per chain, seed and worker count
//   - [Observer]: receives chain progress notifications
//   - [Ensemble]: repeats a sweep over independent seeds
//
// # Example
//
//	s := sim.New()
//	res, err := s.Run(ctx, []float64{1.5, 2.0, 2.5}, sim.Config{Size: 10, Sweeps: 10000, Seed: 42})
//	energies := res.Energies()
//
// # Reproducibility
//
// Each temperature index k draws from its own stream seeded with
// [StreamSeed](cfg.Seed, k), so a fixed seed yields bit-identical output
// for any number of workers.
//
// # Thread Safety
//
// A Simulator may be used for several Run calls, but AddMetric and
// AddObserver must not race with Run. Observers are called from worker
// goroutines when Workers > 1 and must be safe for concurrent use.
package sim
