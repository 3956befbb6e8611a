package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/metropolis"
)

type testMetric struct {
	count  int
	trials int
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(_ *lattice.Lattice, st metropolis.Stats) float64 {
	t.count++
	t.trials += st.Trials
	return float64(st.Trials)
}
func (t *testMetric) Value() float64 { return float64(t.trials) }
func (t *testMetric) Reset() {
	t.count = 0
	t.trials = 0
}

type event struct {
	kind  string
	k     int
	sweep int
}

type recordingObserver struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingObserver) OnChainStart(k int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: "start", k: k})
}

func (r *recordingObserver) OnSweep(k, sweep int, _ *lattice.Lattice, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: "sweep", k: k, sweep: sweep})
}

func (r *recordingObserver) OnChainDone(k int, _ Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: "done", k: k})
}

func TestSimulatorRun(t *testing.T) {
	s := New()
	temps := []float64{1.5, 2.5, 3.5}
	cfg := Config{Size: 6, Sweeps: 200, Seed: 1}

	result, err := s.Run(context.Background(), temps, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Points) != len(temps) {
		t.Fatalf("expected %d points, got %d", len(temps), len(result.Points))
	}

	for i, p := range result.Points {
		if p.Temperature != temps[i] {
			t.Errorf("point %d: temperature %v, want %v", i, p.Temperature, temps[i])
		}
		if math.Abs(p.Beta-1/temps[i]) > 1e-15 {
			t.Errorf("point %d: beta %v, want %v", i, p.Beta, 1/temps[i])
		}
		if p.Energy < -2 || p.Energy > 2 || math.IsNaN(p.Energy) {
			t.Errorf("point %d: energy per site %v outside [-2, 2]", i, p.Energy)
		}
	}

	if got := result.Energies(); len(got) != 3 || got[1] != result.Points[1].Energy {
		t.Errorf("Energies() not aligned with points: %v", got)
	}
	if got := result.Temperatures(); got[2] != 3.5 {
		t.Errorf("Temperatures() = %v", got)
	}
	if result.Size != 6 || result.Sweeps != 200 || result.Seed != 1 {
		t.Errorf("result does not echo config: %+v", result)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New()

	tests := []struct {
		name  string
		temps []float64
		cfg   Config
		param string
	}{
		{"zero size", []float64{2}, Config{Size: 0, Sweeps: 1}, "size"},
		{"negative size", []float64{2}, Config{Size: -3, Sweeps: 1}, "size"},
		{"zero sweeps", []float64{2}, Config{Size: 4, Sweeps: 0}, "sweeps"},
		{"negative sweeps", []float64{2}, Config{Size: 4, Sweeps: -1}, "sweeps"},
		{"zero temperature", []float64{2, 0}, Config{Size: 4, Sweeps: 1}, "temperature"},
		{"negative temperature", []float64{-1, 2}, Config{Size: 4, Sweeps: 1}, "temperature"},
		{"NaN temperature", []float64{math.NaN()}, Config{Size: 4, Sweeps: 1}, "temperature"},
		{"infinite temperature", []float64{math.Inf(1)}, Config{Size: 4, Sweeps: 1}, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Run(context.Background(), tt.temps, tt.cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if result != nil {
				t.Error("expected no result on invalid input")
			}
			if !errors.Is(err, ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", err)
			}
			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DomainError, got %T", err)
			}
			if de.Param != tt.param {
				t.Errorf("expected param %q, got %q", tt.param, de.Param)
			}
		})
	}
}

func TestSimulatorEmptySchedule(t *testing.T) {
	_, err := New().Run(context.Background(), nil, Config{Size: 4, Sweeps: 1})
	if !errors.Is(err, ErrEmptySchedule) || !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrEmptySchedule wrapping ErrDomain, got %v", err)
	}
}

func TestDomainErrorMessage(t *testing.T) {
	err := &DomainError{Param: "temperature", Index: 2, Value: -1, Reason: "temperature must be finite and positive"}
	want := "sim: temperature[2]=-1: temperature must be finite and positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = &DomainError{Param: "size", Index: -1, Value: 0, Reason: "lattice side length must be at least 1"}
	want = "sim: size=0: lattice side length must be at least 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestSimulatorMetrics(t *testing.T) {
	s := New()
	var made []*testMetric
	s.AddMetric(func() Metric {
		m := &testMetric{}
		made = append(made, m)
		return m
	})

	cfg := Config{Size: 3, Sweeps: 10, Seed: 5}
	result, err := s.Run(context.Background(), []float64{2.0, 3.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(made) != 2 {
		t.Fatalf("expected one metric per chain, got %d", len(made))
	}
	for i, m := range made {
		if m.count != 10 {
			t.Errorf("chain %d: expected 10 observations, got %d", i, m.count)
		}
	}
	for i, p := range result.Points {
		if p.Metrics["test"] != 90 {
			t.Errorf("point %d: expected 90 trials, got %v", i, p.Metrics["test"])
		}
	}
	if got := result.MetricSeries("test"); got[0] != 90 || got[1] != 90 {
		t.Errorf("MetricSeries = %v", got)
	}
}

func TestSimulatorSingleSiteSingleSweep(t *testing.T) {
	s := New()
	m := &testMetric{}
	s.AddMetric(func() Metric { return m })

	result, err := s.Run(context.Background(), []float64{2.0}, Config{Size: 1, Sweeps: 1, Seed: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.trials != 1 {
		t.Errorf("expected exactly one trial, got %d", m.trials)
	}
	e := result.Points[0].Energy
	if math.IsNaN(e) || math.IsInf(e, 0) {
		t.Fatalf("expected finite energy, got %v", e)
	}
	// A single site is its own neighbor four times.
	if e != -2 {
		t.Errorf("expected -2 per site for L=1, got %v", e)
	}
}

func TestSimulatorObserverSequence(t *testing.T) {
	s := New()
	obs := &recordingObserver{}
	s.AddObserver(obs)

	if _, err := s.Run(context.Background(), []float64{1.0, 2.0}, Config{Size: 2, Sweeps: 3}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []event{
		{"start", 0, 0}, {"sweep", 0, 0}, {"sweep", 0, 1}, {"sweep", 0, 2}, {"done", 0, 0},
		{"start", 1, 0}, {"sweep", 1, 0}, {"sweep", 1, 1}, {"sweep", 1, 2}, {"done", 1, 0},
	}
	if len(obs.events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(obs.events), obs.events)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, obs.events[i], want[i])
		}
	}
}

func TestSimulatorInvalidInputNotifiesNothing(t *testing.T) {
	s := New()
	obs := &recordingObserver{}
	s.AddObserver(obs)

	if _, err := s.Run(context.Background(), []float64{2.0, 2.5, -0.5}, Config{Size: 4, Sweeps: 5}); err == nil {
		t.Fatal("expected error")
	}
	if len(obs.events) != 0 {
		t.Errorf("expected no chain to start, got %d events", len(obs.events))
	}
}

func TestSimulatorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		result, err := New().Run(ctx, []float64{1, 2, 3}, Config{Size: 4, Sweeps: 100, Workers: workers})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
		if result != nil {
			t.Errorf("workers=%d: expected no partial result", workers)
		}
	}
}

func TestForEachChainStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var mu sync.Mutex
	seen := map[int]bool{}

	err := forEachChain(context.Background(), 50, 4, func(ctx context.Context, k int) error {
		mu.Lock()
		seen[k] = true
		mu.Unlock()
		if k == 3 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(seen) == 50 {
		t.Error("expected remaining chains to be skipped after failure")
	}
}

func TestStreamSeed(t *testing.T) {
	seen := map[int64]bool{}
	for seed := int64(0); seed < 20; seed++ {
		for k := 0; k < 50; k++ {
			s := StreamSeed(seed, k)
			if seen[s] {
				t.Fatalf("duplicate stream seed for seed=%d k=%d", seed, k)
			}
			seen[s] = true
		}
	}
	if StreamSeed(42, 7) != StreamSeed(42, 7) {
		t.Error("StreamSeed is not deterministic")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Size != 10 {
		t.Errorf("expected size 10, got %d", cfg.Size)
	}
	if cfg.Sweeps != 10000 {
		t.Errorf("expected 10000 sweeps, got %d", cfg.Sweeps)
	}
}

func BenchmarkRun_L10(b *testing.B) {
	s := New()
	cfg := Config{Size: 10, Sweeps: 100, Seed: 1}
	temps := []float64{2.0, 2.5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Run(context.Background(), temps, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
