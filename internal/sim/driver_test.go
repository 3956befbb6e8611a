package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/metrics"
	"github.com/san-kum/ising/internal/sim"
)

type countingObserver struct {
	starts int
}

func (c *countingObserver) OnChainStart(int, float64)                  { c.starts++ }
func (c *countingObserver) OnSweep(int, int, *lattice.Lattice, float64) {}
func (c *countingObserver) OnChainDone(int, sim.Point)                 {}

var _ = Describe("Simulator", func() {
	var (
		s   *sim.Simulator
		ctx context.Context
	)

	BeforeEach(func() {
		s = sim.New()
		ctx = context.Background()
	})

	Describe("determinism", func() {
		temps := []float64{1.5, 2.0, 2.5, 3.0, 3.5}
		cfg := sim.Config{Size: 8, Sweeps: 300, Seed: 1234}

		It("produces bit-identical energies for the same seed", func() {
			a, err := s.Run(ctx, temps, cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := s.Run(ctx, temps, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Energies()).To(Equal(b.Energies()))
		})

		It("does not depend on the number of workers", func() {
			seq, err := s.Run(ctx, temps, cfg)
			Expect(err).NotTo(HaveOccurred())

			par := cfg
			par.Workers = 3
			got, err := s.Run(ctx, temps, par)
			Expect(err).NotTo(HaveOccurred())

			Expect(got.Energies()).To(Equal(seq.Energies()))
		})

		It("changes with the seed", func() {
			a, err := s.Run(ctx, temps, cfg)
			Expect(err).NotTo(HaveOccurred())

			other := cfg
			other.Seed = 4321
			b, err := s.Run(ctx, temps, other)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Energies()).NotTo(Equal(b.Energies()))
		})
	})

	Describe("invalid schedules", func() {
		It("fails atomically on a single non-positive temperature", func() {
			obs := &countingObserver{}
			s.AddObserver(obs)

			res, err := s.Run(ctx, []float64{1.5, 2.0, 0, 3.0}, sim.Config{Size: 4, Sweeps: 10, Workers: 2})
			Expect(res).To(BeNil())
			Expect(errors.Is(err, sim.ErrDomain)).To(BeTrue())

			var de *sim.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Param).To(Equal("temperature"))
			Expect(de.Index).To(Equal(2))
			Expect(de.Value).To(BeZero())
			Expect(obs.starts).To(BeZero())
		})
	})

	Describe("acceptance limits", func() {
		It("accepts nearly every proposal at very high temperature", func() {
			s.AddMetric(func() sim.Metric { return metrics.NewAcceptance() })

			res, err := s.Run(ctx, []float64{1e9}, sim.Config{Size: 6, Sweeps: 200, Seed: 9})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Points[0].Metrics["acceptance"]).To(BeNumerically(">", 0.999))
		})

		It("rarely climbs uphill at very low temperature", func() {
			s.AddMetric(func() sim.Metric { return metrics.NewUphillAcceptance() })

			res, err := s.Run(ctx, []float64{0.05}, sim.Config{Size: 6, Sweeps: 500, Seed: 9})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Points[0].Metrics["uphill_acceptance"]).To(BeNumerically("<", 1e-6))
		})
	})

	Describe("ordered versus disordered phase", func() {
		// Statistical property: averages over independent seeded runs.
		It("is near -2 per site below T_c and near 0 well above it", func() {
			ens := sim.NewEnsemble(s, 4)
			res, err := ens.Run(ctx, []float64{2.0, 4.0}, sim.Config{Size: 10, Sweeps: 10000, Seed: 7, Workers: 2})
			Expect(err).NotTo(HaveOccurred())

			cold, hot := res.Points[0].Energy, res.Points[1].Energy
			Expect(cold).To(BeNumerically("<", -1.4))
			Expect(hot).To(BeNumerically(">", -0.8))
			Expect(hot).To(BeNumerically("<", -0.3))
			Expect(math.Abs(cold + 2)).To(BeNumerically("<", math.Abs(hot+2)))
			Expect(math.Abs(cold)).To(BeNumerically(">", math.Abs(hot)))

			Expect(res.Runs).To(HaveLen(4))
			Expect(res.Points[0].Samples).To(HaveLen(4))
			Expect(res.Points[1].StdErr).To(BeNumerically("<", 0.05))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("rejects a non-positive replica count", func() {
		_, err := sim.NewEnsemble(sim.New(), 0).Run(context.Background(), []float64{2}, sim.Config{Size: 2, Sweeps: 1})
		Expect(err).To(MatchError(sim.ErrDomain))
	})

	It("reports zero standard error for a single replica", func() {
		res, err := sim.NewEnsemble(sim.New(), 1).Run(context.Background(), []float64{2.5}, sim.Config{Size: 4, Sweeps: 20, Seed: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Points[0].StdErr).To(BeZero())
		Expect(res.Energies()).To(Equal(res.Runs[0].Energies()))
	})

	It("uses consecutive seeds for replicas", func() {
		cfg := sim.Config{Size: 4, Sweeps: 20, Seed: 10}
		res, err := sim.NewEnsemble(sim.New(), 2).Run(context.Background(), []float64{2.5}, cfg)
		Expect(err).NotTo(HaveOccurred())

		cfg.Seed = 11
		single, err := sim.New().Run(context.Background(), []float64{2.5}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Runs[1].Energies()).To(Equal(single.Energies()))
	})
})
