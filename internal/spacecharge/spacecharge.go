// Package spacecharge computes the electric field that a cloud of charged
// particles exerts on its members. The main implementation is a Barnes-Hut
// style octree; a direct pairwise solver with the same interface serves as
// exact reference and as drop-in alternative for small clouds.
package spacecharge

import "github.com/san-kum/ionsim/internal/core"

// FieldCalculator yields the space charge electric field at a particle
// position. Implementations must be safe for concurrent read-only queries
// between charge distribution updates.
type FieldCalculator interface {
	EFieldFromSpaceCharge(p *core.Particle) core.Vector
}

// Solver is a FieldCalculator that is rebuilt from particle positions once
// per integration step: Reset, a series of InsertParticle calls, then one
// ComputeChargeDistribution before any field query.
type Solver interface {
	FieldCalculator
	Reset()
	InsertParticle(p *core.Particle) error
	ComputeChargeDistribution()
	NumberOfParticles() int
}
