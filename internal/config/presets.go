package config

import "sort"

var Presets = map[string]*Config{
	// 30 temperatures in [1.5, 3.5], L = 10, 10000 sweeps.
	"reference": {
		Size: 10, Sweeps: 10000, Workers: 1, Replicas: 1,
		Temperatures: TemperatureConfig{Min: 1.5, Max: 3.5, Count: 30},
	},
	"quick": {
		Size: 8, Sweeps: 1000, Workers: 1, Replicas: 1,
		Temperatures: TemperatureConfig{Min: 1.5, Max: 3.5, Count: 10},
	},
	"critical": {
		Size: 16, Sweeps: 20000, Workers: 4, Replicas: 1,
		Temperatures: TemperatureConfig{Min: 2.0, Max: 2.6, Count: 13},
	},
	"large": {
		Size: 32, Sweeps: 5000, Workers: 4, Replicas: 1,
		Temperatures: TemperatureConfig{Min: 1.0, Max: 4.0, Count: 31},
	},
	"phases": {
		Size: 10, Sweeps: 10000, Workers: 2, Replicas: 8,
		Temperatures: TemperatureConfig{Values: []float64{2.0, 4.0}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Temperatures.Values = append([]float64(nil), p.Temperatures.Values...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
