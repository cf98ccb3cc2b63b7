package collision

import (
	"math"
	"sync"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

// StatisticalDiffusion models background gas interaction as a velocity
// space random walk. Instead of resolving individual collision events it
// estimates the mean number of collisions per step from the local mean
// free path and applies one aggregated update: an exponential relaxation
// of the ion velocity plus a stochastic kick whose magnitude is drawn from
// the precomputed collision statistics table. The stationary state is the
// thermal distribution of the ion at the local gas temperature.
//
// This model stays accurate at high pressures where the hard sphere model
// would need many collision events per time step.
type StatisticalDiffusion struct {
	pressure    SpatialFunc // Pa
	temperature SpatialFunc // K
	gasMass     float64     // kg
	gasDiameter float64     // m

	stats  *CollisionStatistics
	params sync.Map // *core.Particle -> sdParams
}

type sdParams struct {
	effectiveDiameter float64
	// relaxation is the mean fractional ion velocity loss per collision,
	// gasMass / (ionMass + gasMass) for elastic hard spheres.
	relaxation float64
}

// NewStatisticalDiffusion creates a statistical diffusion model for a
// background gas at constant pressure and temperature.
func NewStatisticalDiffusion(pressurePa, temperatureK, gasMassAMU, gasDiameterM float64) *StatisticalDiffusion {
	return NewStatisticalDiffusionWithFields(
		ConstantSpatialFunc(pressurePa),
		ConstantSpatialFunc(temperatureK),
		gasMassAMU, gasDiameterM,
	)
}

// NewStatisticalDiffusionWithFields creates a statistical diffusion model
// with spatially varying background gas conditions.
func NewStatisticalDiffusionWithFields(pressure, temperature SpatialFunc, gasMassAMU, gasDiameterM float64) *StatisticalDiffusion {
	return &StatisticalDiffusion{
		pressure:    pressure,
		temperature: temperature,
		gasMass:     gasMassAMU * core.AmuToKg,
		gasDiameter: gasDiameterM,
		stats:       NewCollisionStatistics(),
	}
}

func (m *StatisticalDiffusion) InitializeModelParticleParameters(p *core.Particle) {
	d := p.Diameter()
	if d <= 0 {
		d = estimateCollisionDiameterFromMass(p.Mass() / core.AmuToKg)
	}
	m.params.Store(p, sdParams{
		effectiveDiameter: (d + m.gasDiameter) / 2,
		relaxation:        m.gasMass / (p.Mass() + m.gasMass),
	})
}

func (m *StatisticalDiffusion) paramsFor(p *core.Particle) sdParams {
	if v, ok := m.params.Load(p); ok {
		return v.(sdParams)
	}
	m.InitializeModelParticleParameters(p)
	v, _ := m.params.Load(p)
	return v.(sdParams)
}

func (m *StatisticalDiffusion) ApplyCollision(p *core.Particle, dt float64, src *rng.Source) {
	pressure := m.pressure(p.Location)
	if pressure <= 0 {
		return
	}
	temperature := m.temperature(p.Location)
	params := m.paramsFor(p)

	crossSection := math.Pi * params.effectiveDiameter * params.effectiveDiameter
	gasDensity := pressure / (core.Boltzmann * temperature)
	meanFreePath := 1.0 / (math.Sqrt2 * gasDensity * crossSection)

	// Mean relative speed between the ion and the thermal gas.
	meanGasSpeed := math.Sqrt(8 * core.Boltzmann * temperature / (math.Pi * m.gasMass))
	relativeSpeed := math.Sqrt(p.Velocity.NormSquared() + meanGasSpeed*meanGasSpeed)

	meanCollisions := relativeSpeed * dt / meanFreePath
	if meanCollisions <= 0 {
		return
	}

	damping := math.Exp(-meanCollisions * params.relaxation)

	// Kick scale that makes the thermal ion velocity the stationary state.
	sigma := math.Sqrt(core.Boltzmann*temperature/p.Mass()) * math.Sqrt(1-damping*damping)
	kickSpeed := sigma * m.stats.Sample(src.UniformRealRndValue())

	p.Velocity = p.Velocity.Mul(damping).Add(isotropicDirection(src).Mul(kickSpeed))
}
