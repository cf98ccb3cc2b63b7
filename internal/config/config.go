// Package config loads and validates simulation configurations from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ionsim/internal/core"
)

const (
	DefaultTimeSteps     = 10000
	DefaultDt            = 1e-6
	DefaultWriteInterval = 100
	DefaultTheta         = 0.9
	DefaultDomainExtent  = 1000.0
)

// Collision model selectors.
const (
	ModelNone       = "none"
	ModelHardSphere = "hard_sphere"
	ModelSDS        = "sds"
	ModelMulti      = "multi"
)

// Boundary policies.
const (
	TerminationTerminate = "terminate"
	TerminationRestart   = "restart"
)

// Start zone shapes.
const (
	ZoneBox      = "box"
	ZoneCylinder = "cylinder"
)

type Config struct {
	TimeSteps               int     `yaml:"time_steps"`
	Dt                      float64 `yaml:"dt"`
	TrajectoryWriteInterval int     `yaml:"trajectory_write_interval"`
	CompressTrajectory      bool    `yaml:"compress_trajectory"`

	SpaceChargeFactor float64 `yaml:"space_charge_factor"`
	Theta             float64 `yaml:"theta"`
	Workers           int     `yaml:"workers"`
	Seed              uint64  `yaml:"seed"`

	// BackgroundField is a uniform external electric field in V/m.
	BackgroundField [3]float64 `yaml:"background_field"`

	Ions      []IonGroup `yaml:"ions"`
	StartZone StartZone  `yaml:"start_zone"`

	CollisionModel  string         `yaml:"collision_model"`
	BackgroundGas   []GasComponent `yaml:"background_gas"`
	TerminationMode string         `yaml:"termination_mode"`

	Domain Domain `yaml:"domain"`
}

// IonGroup describes one ion species of the cloud.
type IonGroup struct {
	N                int     `yaml:"n"`
	MassAMU          float64 `yaml:"mass_amu"`
	ChargeElementary float64 `yaml:"charge"`
}

// GasComponent describes one background gas component. For multi-component
// gases the partial pressures carry the concentration weights.
type GasComponent struct {
	PressurePa   float64 `yaml:"pressure_pa"`
	TemperatureK float64 `yaml:"temperature_k"`
	MassAMU      float64 `yaml:"mass_amu"`
	DiameterM    float64 `yaml:"diameter_m"`
}

type StartZone struct {
	Shape  string     `yaml:"shape"`
	Corner [3]float64 `yaml:"corner"`
	Size   [3]float64 `yaml:"size"`

	// cylinder parameters
	Center     [3]float64 `yaml:"center"`
	Axis       [3]float64 `yaml:"axis"`
	Radius     float64    `yaml:"radius"`
	HalfLength float64    `yaml:"half_length"`
}

type Domain struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

func DefaultConfig() *Config {
	return &Config{
		TimeSteps:               DefaultTimeSteps,
		Dt:                      DefaultDt,
		TrajectoryWriteInterval: DefaultWriteInterval,
		SpaceChargeFactor:       1.0,
		Theta:                   DefaultTheta,
		Ions: []IonGroup{
			{N: 1000, MassAMU: 100.0, ChargeElementary: 1.0},
		},
		StartZone: StartZone{
			Shape:  ZoneBox,
			Corner: [3]float64{-1e-3, -1e-3, -1e-3},
			Size:   [3]float64{2e-3, 2e-3, 2e-3},
		},
		CollisionModel: ModelNone,
		BackgroundGas: []GasComponent{
			{PressurePa: 100.0, TemperatureK: 298.0, MassAMU: 28.0, DiameterM: 3.64e-10},
		},
		TerminationMode: TerminationTerminate,
		Domain: Domain{
			Min: [3]float64{-DefaultDomainExtent, -DefaultDomainExtent, -DefaultDomainExtent},
			Max: [3]float64{DefaultDomainExtent, DefaultDomainExtent, DefaultDomainExtent},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration. Any violation is fatal at setup and
// wraps core.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", core.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}

	if c.TimeSteps <= 0 {
		return fail("time_steps must be positive, got %d", c.TimeSteps)
	}
	if c.Dt <= 0 {
		return fail("dt must be positive, got %g", c.Dt)
	}
	if c.TrajectoryWriteInterval < 0 {
		return fail("trajectory_write_interval must not be negative")
	}
	if c.SpaceChargeFactor < 0 {
		return fail("space_charge_factor must not be negative")
	}
	if c.Theta < 0 {
		return fail("theta must not be negative, got %g", c.Theta)
	}
	if c.Workers < 0 {
		return fail("workers must not be negative")
	}

	if len(c.Ions) == 0 {
		return fail("at least one ion group is required")
	}
	for i, g := range c.Ions {
		if g.N <= 0 {
			return fail("ions[%d]: n must be positive", i)
		}
		if g.MassAMU <= 0 {
			return fail("ions[%d]: mass_amu must be positive", i)
		}
	}

	switch c.StartZone.Shape {
	case ZoneBox:
		for i, s := range c.StartZone.Size {
			if s <= 0 {
				return fail("start_zone: size[%d] must be positive", i)
			}
		}
	case ZoneCylinder:
		if c.StartZone.Radius <= 0 || c.StartZone.HalfLength <= 0 {
			return fail("start_zone: cylinder needs positive radius and half_length")
		}
		if c.StartZone.Axis == [3]float64{} {
			return fail("start_zone: cylinder axis must not be zero")
		}
	default:
		return fail("start_zone: unknown shape %q", c.StartZone.Shape)
	}

	switch c.CollisionModel {
	case ModelNone:
	case ModelHardSphere, ModelSDS:
		if len(c.BackgroundGas) == 0 {
			return fail("collision model %q needs a background_gas entry", c.CollisionModel)
		}
	case ModelMulti:
		if len(c.BackgroundGas) < 2 {
			return fail("collision model %q needs at least two background_gas entries", c.CollisionModel)
		}
	default:
		return fail("unknown collision_model %q", c.CollisionModel)
	}
	if c.CollisionModel != ModelNone {
		for i, g := range c.BackgroundGas {
			if g.PressurePa < 0 {
				return fail("background_gas[%d]: pressure_pa must not be negative", i)
			}
			if g.TemperatureK <= 0 {
				return fail("background_gas[%d]: temperature_k must be positive", i)
			}
			if g.MassAMU <= 0 {
				return fail("background_gas[%d]: mass_amu must be positive", i)
			}
			if g.DiameterM <= 0 {
				return fail("background_gas[%d]: diameter_m must be positive", i)
			}
		}
	}

	switch c.TerminationMode {
	case TerminationTerminate, TerminationRestart:
	default:
		return fail("unknown termination_mode %q", c.TerminationMode)
	}

	for i := 0; i < 3; i++ {
		if c.Domain.Min[i] >= c.Domain.Max[i] {
			return fail("domain: min[%d] must be below max[%d]", i, i)
		}
	}
	return nil
}

// TotalIons is the particle count over all ion groups.
func (c *Config) TotalIons() int {
	n := 0
	for _, g := range c.Ions {
		n += g.N
	}
	return n
}

// Vec converts a YAML triple to a core vector.
func Vec(v [3]float64) core.Vector {
	return core.Vector{X: v[0], Y: v[1], Z: v[2]}
}
