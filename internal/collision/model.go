// Package collision implements stochastic background gas scattering. A
// collision model is applied once per active particle per time step and may
// modify the particle's velocity and its model parameters, never its
// position. All models draw randomness exclusively from the calling
// worker's source, so no generator is ever shared between workers.
package collision

import (
	"math"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

// AttrCollisionCount is the particle integer attribute in which models
// count velocity-altering collision events.
const AttrCollisionCount = "collisions"

// Model is the capability interface of the background gas models.
type Model interface {
	// InitializeModelParticleParameters sets the per-particle scattering
	// parameters. It is called when a particle is registered and must be
	// called again whenever the particle changes its chemical species.
	InitializeModelParticleParameters(p *core.Particle)

	// ApplyCollision performs one stochastic scattering update using the
	// calling worker's random source.
	ApplyCollision(p *core.Particle, dt float64, src *rng.Source)
}

// SpatialFunc maps a position to a local scalar background gas condition
// (pressure, temperature, ...).
type SpatialFunc func(pos core.Vector) float64

// ConstantSpatialFunc returns a SpatialFunc with a fixed value everywhere.
func ConstantSpatialFunc(value float64) SpatialFunc {
	return func(core.Vector) float64 { return value }
}

// None is the identity collision model.
type None struct{}

func (None) InitializeModelParticleParameters(*core.Particle) {}

func (None) ApplyCollision(*core.Particle, float64, *rng.Source) {}

// estimateCollisionDiameterFromMass estimates a collision diameter for an
// ion of the given mass by cube root scaling from the nitrogen reference
// diameter.
func estimateCollisionDiameterFromMass(massAMU float64) float64 {
	const (
		refDiameter = 3.64e-10 // m, N2
		refMass     = 28.0     // amu
	)
	return refDiameter * math.Cbrt(massAMU/refMass)
}

// isotropicDirection samples a uniformly distributed unit vector.
func isotropicDirection(src *rng.Source) core.Vector {
	z := 2*src.UniformRealRndValue() - 1
	phi := 2 * math.Pi * src.UniformRealRndValue()
	r := math.Sqrt(1 - z*z)
	return core.Vector{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

func countCollision(p *core.Particle) {
	p.SetIntAttribute(AttrCollisionCount, p.IntAttribute(AttrCollisionCount)+1)
}
