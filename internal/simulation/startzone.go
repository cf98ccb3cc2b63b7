// Package simulation provides the building blocks around the integrator
// that full simulations share: particle start zones and the start/splat
// bookkeeping of particle lifecycles.
package simulation

import (
	"math"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

// StartZone is a spatial region in which new particles are born.
type StartZone interface {
	// RandomParticlePosition draws a position uniformly from the zone.
	RandomParticlePosition(src *rng.Source) core.Vector
}

// BoxStartZone is an axis-aligned box start zone.
type BoxStartZone struct {
	corner core.Vector
	size   core.Vector
}

// NewBoxStartZone creates a box start zone from its minimum corner and
// edge lengths.
func NewBoxStartZone(corner, size core.Vector) *BoxStartZone {
	return &BoxStartZone{corner: corner, size: size}
}

func (z *BoxStartZone) RandomParticlePosition(src *rng.Source) core.Vector {
	return core.Vector{
		X: z.corner.X + z.size.X*src.UniformRealRndValue(),
		Y: z.corner.Y + z.size.Y*src.UniformRealRndValue(),
		Z: z.corner.Z + z.size.Z*src.UniformRealRndValue(),
	}
}

// CylinderStartZone is a cylindrical start zone centered on the origin of
// its axis.
type CylinderStartZone struct {
	radius     float64
	halfLength float64
	center     core.Vector

	// orthonormal basis with w along the cylinder axis
	u, v, w core.Vector
}

// NewCylinderStartZone creates a cylinder start zone with the given
// radius, centered at center and extending halfLength along the axis in
// both directions. axis does not need to be normalized.
func NewCylinderStartZone(radius, halfLength float64, center, axis core.Vector) *CylinderStartZone {
	w := axis.Normalized()

	// any vector not parallel to w seeds the basis
	seed := core.Vector{X: 1}
	if math.Abs(w.X) > 0.9 {
		seed = core.Vector{Y: 1}
	}
	u := w.Cross(seed).Normalized()
	v := w.Cross(u)

	return &CylinderStartZone{
		radius:     radius,
		halfLength: halfLength,
		center:     center,
		u:          u,
		v:          v,
		w:          w,
	}
}

func (z *CylinderStartZone) RandomParticlePosition(src *rng.Source) core.Vector {
	// uniform in the disk, uniform along the axis
	r := z.radius * math.Sqrt(src.UniformRealRndValue())
	phi := 2 * math.Pi * src.UniformRealRndValue()
	h := z.halfLength * (2*src.UniformRealRndValue() - 1)

	return z.center.
		Add(z.u.Mul(r * math.Cos(phi))).
		Add(z.v.Mul(r * math.Sin(phi))).
		Add(z.w.Mul(h))
}

// RandomParticlesInStartZone creates n resting particles at random
// positions in the zone. A positive timeOfBirthRange spreads the birth
// times uniformly over [0, timeOfBirthRange).
func RandomParticlesInStartZone(zone StartZone, n int, chargeElementary, massAMU, timeOfBirthRange float64, src *rng.Source) []*core.Particle {
	particles := make([]*core.Particle, n)
	for i := range particles {
		p := core.NewParticle(zone.RandomParticlePosition(src), core.Vector{}, chargeElementary, massAMU)
		if timeOfBirthRange > 0 {
			p.SetTimeOfBirth(timeOfBirthRange * src.UniformRealRndValue())
		}
		particles[i] = p
	}
	return particles
}
