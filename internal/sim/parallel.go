package sim

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// forEachChain calls fn for every index in [0, n) using up to workers
// goroutines. It stops handing out work after the first failure, cancels the
// chains still running and returns that first error.
func forEachChain(ctx context.Context, n, workers int, fn func(ctx context.Context, k int) error) error {
	if workers <= 1 || n <= 1 {
		for k := 0; k < n; k++ {
			if err := fn(ctx, k); err != nil {
				return err
			}
		}
		return nil
	}
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)

	var (
		once     sync.Once
		firstErr error
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for k := range jobs {
				if err := fn(ctx, k); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

feed:
	for k := 0; k < n; k++ {
		select {
		case jobs <- k:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Ensemble repeats a temperature sweep over independent seeds.
type Ensemble struct {
	base     *Simulator
	replicas int
}

func NewEnsemble(s *Simulator, replicas int) *Ensemble {
	return &Ensemble{base: s, replicas: replicas}
}

// EnsemblePoint aggregates one temperature across replicas.
type EnsemblePoint struct {
	Temperature float64   `json:"temperature"`
	Energy      float64   `json:"energy"`  // mean over replicas
	StdErr      float64   `json:"std_err"` // standard error of Energy, 0 for one replica
	Samples     []float64 `json:"samples"`
}

type EnsembleResult struct {
	Points []EnsemblePoint
	Runs   []*Result
}

// Energies returns the replica-averaged energy per site for each temperature.
func (r *EnsembleResult) Energies() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Energy
	}
	return out
}

// Run performs replicas runs with seeds cfg.Seed, cfg.Seed+1, ...
func (e *Ensemble) Run(ctx context.Context, temperatures []float64, cfg Config) (*EnsembleResult, error) {
	if e.replicas < 1 {
		return nil, &DomainError{Param: "replicas", Index: -1, Value: float64(e.replicas), Reason: "replica count must be at least 1"}
	}
	if err := validate(temperatures, cfg); err != nil {
		return nil, err
	}

	runs := make([]*Result, e.replicas)
	for r := 0; r < e.replicas; r++ {
		c := cfg
		c.Seed = cfg.Seed + int64(r)
		res, err := e.base.Run(ctx, temperatures, c)
		if err != nil {
			return nil, err
		}
		runs[r] = res
	}

	points := make([]EnsemblePoint, len(temperatures))
	for k, t := range temperatures {
		samples := make([]float64, e.replicas)
		for r, res := range runs {
			samples[r] = res.Points[k].Energy
		}
		p := EnsemblePoint{Temperature: t, Samples: samples}
		if e.replicas == 1 {
			p.Energy = samples[0]
		} else {
			mean, std := stat.MeanStdDev(samples, nil)
			p.Energy = mean
			p.StdErr = std / math.Sqrt(float64(e.replicas))
		}
		points[k] = p
	}

	return &EnsembleResult{Points: points, Runs: runs}, nil
}
