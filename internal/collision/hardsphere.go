package collision

import (
	"math"
	"sync"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

// HardSphere models elastic hard sphere collisions between an ion and a
// neutral background gas. Each step the collision probability follows from
// the mean free path at the local gas conditions; on a collision the gas
// particle velocity is sampled from a Maxwell-Boltzmann distribution and
// the ion velocity is scattered isotropically in the center of mass frame.
type HardSphere struct {
	pressure    SpatialFunc // Pa
	temperature SpatialFunc // K
	gasMass     float64     // kg
	gasDiameter float64     // m

	// effective collision diameters per particle, written only from
	// InitializeModelParticleParameters which may race between workers
	// when particles enter the simulation concurrently
	diameters sync.Map // *core.Particle -> float64
}

// NewHardSphere creates a hard sphere model for a background gas at
// constant pressure and temperature.
func NewHardSphere(pressurePa, temperatureK, gasMassAMU, gasDiameterM float64) *HardSphere {
	return NewHardSphereWithFields(
		ConstantSpatialFunc(pressurePa),
		ConstantSpatialFunc(temperatureK),
		gasMassAMU, gasDiameterM,
	)
}

// NewHardSphereWithFields creates a hard sphere model with spatially
// varying background gas pressure and temperature.
func NewHardSphereWithFields(pressure, temperature SpatialFunc, gasMassAMU, gasDiameterM float64) *HardSphere {
	return &HardSphere{
		pressure:    pressure,
		temperature: temperature,
		gasMass:     gasMassAMU * core.AmuToKg,
		gasDiameter: gasDiameterM,
	}
}

// InitializeModelParticleParameters caches the effective collision
// diameter of the particle. An unset particle diameter is estimated from
// the particle mass.
func (m *HardSphere) InitializeModelParticleParameters(p *core.Particle) {
	d := p.Diameter()
	if d <= 0 {
		d = estimateCollisionDiameterFromMass(p.Mass() / core.AmuToKg)
	}
	m.diameters.Store(p, (d+m.gasDiameter)/2)
}

func (m *HardSphere) effectiveDiameter(p *core.Particle) float64 {
	if d, ok := m.diameters.Load(p); ok {
		return d.(float64)
	}
	m.InitializeModelParticleParameters(p)
	d, _ := m.diameters.Load(p)
	return d.(float64)
}

func (m *HardSphere) ApplyCollision(p *core.Particle, dt float64, src *rng.Source) {
	pressure := m.pressure(p.Location)
	if pressure <= 0 {
		return
	}
	temperature := m.temperature(p.Location)

	// Thermal velocity spread of the gas (per cartesian component).
	sigmaGas := math.Sqrt(core.Boltzmann * temperature / m.gasMass)
	gasVelocity := core.Vector{
		X: sigmaGas * src.NormalRealRndValue(),
		Y: sigmaGas * src.NormalRealRndValue(),
		Z: sigmaGas * src.NormalRealRndValue(),
	}

	relative := p.Velocity.Sub(gasVelocity)
	relativeSpeed := relative.Norm()
	if relativeSpeed == 0 {
		return
	}

	d := m.effectiveDiameter(p)
	crossSection := math.Pi * d * d
	gasDensity := pressure / (core.Boltzmann * temperature)
	meanFreePath := 1.0 / (math.Sqrt2 * gasDensity * crossSection)

	probability := 1.0 - math.Exp(-relativeSpeed*dt/meanFreePath)
	if src.UniformRealRndValue() >= probability {
		return
	}

	// Elastic scatter: the relative speed is conserved, its direction
	// after the collision is isotropic in the center of mass frame.
	ionMass := p.Mass()
	totalMass := ionMass + m.gasMass
	comVelocity := p.Velocity.Mul(ionMass / totalMass).Add(gasVelocity.Mul(m.gasMass / totalMass))

	scattered := isotropicDirection(src).Mul(relativeSpeed)
	p.Velocity = comVelocity.Add(scattered.Mul(m.gasMass / totalMass))

	countCollision(p)
}
