package config

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ising/internal/sim"
)

const (
	DefaultSize     = 10
	DefaultSweeps   = 10000
	DefaultTMin     = 1.5
	DefaultTMax     = 3.5
	DefaultNTemp    = 30
	DefaultWorkers  = 1
	DefaultReplicas = 1
)

var (
	ErrNoTemperatures = errors.New("config: temperature count must be at least 1")
	ErrInvertedRange  = errors.New("config: temperature min must not exceed max")
)

type Config struct {
	Size         int               `yaml:"size"`
	Sweeps       int               `yaml:"sweeps"`
	Seed         int64             `yaml:"seed"`
	Workers      int               `yaml:"workers"`
	Replicas     int               `yaml:"replicas"`
	Temperatures TemperatureConfig `yaml:"temperatures"`

	// SeedSet records that the seed came from a file, including an explicit
	// seed: 0. Flags only replace it when --seed is given.
	SeedSet bool `yaml:"-"`
}

// TemperatureConfig describes the schedule either as an evenly spaced
// inclusive range or as explicit values. Values, when set, win.
type TemperatureConfig struct {
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Count  int       `yaml:"count"`
	Values []float64 `yaml:"values,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:     DefaultSize,
		Sweeps:   DefaultSweeps,
		Workers:  DefaultWorkers,
		Replicas: DefaultReplicas,
		Temperatures: TemperatureConfig{
			Min:   DefaultTMin,
			Max:   DefaultTMax,
			Count: DefaultNTemp,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of a copy of base. Keys absent from the
// file keep their base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Temperatures.Values = append([]float64(nil), base.Temperatures.Values...)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	var seed struct {
		Seed *int64 `yaml:"seed"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if seed.Seed != nil {
		cfg.SeedSet = true
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the schedule description. Physical constraints on the
// values themselves are enforced by the simulator.
func (c *Config) Validate() error {
	if len(c.Temperatures.Values) > 0 {
		return nil
	}
	if c.Temperatures.Count < 1 {
		return fmt.Errorf("%w, got %d", ErrNoTemperatures, c.Temperatures.Count)
	}
	if c.Temperatures.Min > c.Temperatures.Max {
		return fmt.Errorf("%w: [%v, %v]", ErrInvertedRange, c.Temperatures.Min, c.Temperatures.Max)
	}
	return nil
}

// Schedule returns the ordered temperatures to simulate.
func (c *Config) Schedule() []float64 {
	t := c.Temperatures
	if len(t.Values) > 0 {
		out := make([]float64, len(t.Values))
		copy(out, t.Values)
		return out
	}
	return Linspace(t.Min, t.Max, t.Count)
}

// Linspace returns n evenly spaced values from lo to hi inclusive. A single
// point is lo.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// SimConfig converts to the simulator's run parameters.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Size:    c.Size,
		Sweeps:  c.Sweeps,
		Seed:    c.Seed,
		Workers: c.Workers,
	}
}
