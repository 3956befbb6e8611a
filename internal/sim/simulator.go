package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/metrics"
	"github.com/san-kum/ising/internal/metropolis"
)

type Simulator struct {
	metrics   []MetricFactory
	observers []Observer
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]MetricFactory, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(f MetricFactory) { s.metrics = append(s.metrics, f) }
func (s *Simulator) AddObserver(o Observer)    { s.observers = append(s.observers, o) }

// Run executes one Markov chain per temperature and returns the mean energy
// per site for each, index-aligned with temperatures. All parameters are
// validated before any chain starts; on error no result is returned.
func (s *Simulator) Run(ctx context.Context, temperatures []float64, cfg Config) (*Result, error) {
	if err := validate(temperatures, cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	points := make([]Point, len(temperatures))

	err := forEachChain(ctx, len(temperatures), cfg.Workers, func(ctx context.Context, k int) error {
		p, err := s.runChain(ctx, k, temperatures[k], cfg)
		if err != nil {
			return err
		}
		points[k] = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Points:  points,
		Size:    cfg.Size,
		Sweeps:  cfg.Sweeps,
		Seed:    cfg.Seed,
		Elapsed: time.Since(start),
	}, nil
}

func (s *Simulator) runChain(ctx context.Context, k int, t float64, cfg Config) (Point, error) {
	beta := 1 / t
	rng := rand.New(rand.NewSource(StreamSeed(cfg.Seed, k)))

	lat, err := lattice.Random(cfg.Size, rng)
	if err != nil {
		return Point{}, err
	}
	upd, err := metropolis.New(beta, rng)
	if err != nil {
		return Point{}, err
	}

	energy := metrics.NewEnergy()
	extra := make([]Metric, len(s.metrics))
	for i, f := range s.metrics {
		extra[i] = f()
		extra[i].Reset()
	}

	for _, o := range s.observers {
		o.OnChainStart(k, t)
	}

	for sweep := 0; sweep < cfg.Sweeps; sweep++ {
		select {
		case <-ctx.Done():
			return Point{}, ctx.Err()
		default:
		}

		st := upd.Sweep(lat)
		e := energy.Observe(lat, st)
		for _, m := range extra {
			m.Observe(lat, st)
		}
		for _, o := range s.observers {
			o.OnSweep(k, sweep, lat, e)
		}
	}

	p := Point{
		Temperature: t,
		Beta:        upd.Beta(),
		Energy:      energy.Value(),
	}
	if len(extra) > 0 {
		p.Metrics = make(map[string]float64, len(extra))
		for _, m := range extra {
			p.Metrics[m.Name()] = m.Value()
		}
	}

	for _, o := range s.observers {
		o.OnChainDone(k, p)
	}
	return p, nil
}

func validate(temperatures []float64, cfg Config) error {
	if cfg.Size < 1 {
		return &DomainError{Param: "size", Index: -1, Value: float64(cfg.Size), Reason: "lattice side length must be at least 1"}
	}
	if cfg.Sweeps < 1 {
		return &DomainError{Param: "sweeps", Index: -1, Value: float64(cfg.Sweeps), Reason: "sweep count must be at least 1"}
	}
	if len(temperatures) == 0 {
		return ErrEmptySchedule
	}
	for k, t := range temperatures {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			return &DomainError{Param: "temperature", Index: k, Value: t, Reason: "temperature must be finite and positive"}
		}
	}
	return nil
}
